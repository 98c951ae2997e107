package attendance

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Storage codes for day statuses. They appear only in persisted day maps.
var statusCodes = map[Status]string{
	StatusUnmarked:   "",
	StatusPresent:    "p",
	StatusFirstHalf:  "1h",
	StatusSecondHalf: "2h",
	StatusAbsent:     "a",
	StatusLeave:      "l",
	StatusHoliday:    "h",
}

func (s Status) Code() string {
	return statusCodes[s]
}

func ParseStatusCode(code string) (Status, error) {
	for status, c := range statusCodes {
		if c == code {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown attendance status code %q", code)
}

type storedDay struct {
	S   string  `json:"s"`
	LT  *string `json:"lt,omitempty"`
	LID *string `json:"lid,omitempty"`
	Imm bool    `json:"imm,omitempty"`
	HN  *string `json:"hn,omitempty"`
}

// EncodeDays serializes the day map keyed by day number. Unmarked days are omitted.
func (m *Month) EncodeDays() ([]byte, error) {
	out := make(map[string]storedDay)
	for day := 1; day <= m.Key.DaysInMonth(); day++ {
		rec := m.days[day-1]
		if rec.isEmpty() && !rec.Immutable {
			continue
		}
		out[strconv.Itoa(day)] = storedDay{
			S:   rec.Status.Code(),
			LT:  rec.LeaveType,
			LID: rec.LeaveID,
			Imm: rec.Immutable,
			HN:  rec.HolidayName,
		}
	}
	return json.Marshal(out)
}

// DecodeDays loads a persisted day map into m, replacing its days.
func (m *Month) DecodeDays(raw []byte) error {
	stored := make(map[string]storedDay)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &stored); err != nil {
			return fmt.Errorf("decode day map: %w", err)
		}
	}
	for i := range m.days {
		m.days[i] = DayRecord{Status: StatusUnmarked}
	}
	for k, sd := range stored {
		day, err := strconv.Atoi(k)
		if err != nil {
			return fmt.Errorf("decode day map: bad day key %q", k)
		}
		status, err := ParseStatusCode(sd.S)
		if err != nil {
			return err
		}
		if err := m.SetDay(day, DayRecord{
			Status:      status,
			LeaveType:   sd.LT,
			LeaveID:     sd.LID,
			Immutable:   sd.Imm,
			HolidayName: sd.HN,
		}); err != nil {
			return err
		}
	}
	return nil
}

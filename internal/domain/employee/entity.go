package employee

import "time"

// Employee is the slice of HR master data the engine reads. The record itself
// is owned and edited elsewhere.
type Employee struct {
	ID       string
	FullName string
	JoinDate *time.Time
	Active   bool
}

// ReportingPerson links an employee to an approver at a given level.
// Level 1 is the direct manager.
type ReportingPerson struct {
	EmployeeID string
	ApproverID string
	Level      int
}

package entities

type LeaveRequestSubmission struct {
	DoctorID  int    `json:"doctor_id"`
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`
	LeaveType string `json:"leave_type"` // full_day | half_day
	Session   string `json:"session,omitempty"`
	Reason    string `json:"reason"`
}

type LeaveDecision struct {
	AdminComment string `json:"admin_comment,omitempty"`
}

type LeaveApprovalResult struct {
	LeaveRequestID int `json:"leave_request_id"`
	CancelledCount int `json:"cancelled_count"`
}

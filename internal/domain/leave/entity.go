package leave

// Request statuses as the backend reports them.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Types accepted by the leave form.
var Types = []string{
	"Annual Leave",
	"Sick Leave",
	"Maternity Leave",
	"Paternity Leave",
	"Personal Leave",
	"Emergency Leave",
}

type Request struct {
	ID             *int64 `json:"id,omitempty"`
	StartDate      string `json:"startDate"`
	EndDate        string `json:"endDate"`
	LeaveType      string `json:"leaveType"`
	Reason         string `json:"reason"`
	Status         string `json:"status,omitempty"`
	AdminComment   string `json:"adminComment,omitempty"`
	EmployeeName   string `json:"employeeName,omitempty"`
	EmployeeEmail  string `json:"employeeEmail,omitempty"`
	ApprovedByName string `json:"approvedByName,omitempty"`
}

// Approval is the admin's decision on a pending request.
type Approval struct {
	Status       string `json:"status"`
	AdminComment string `json:"adminComment,omitempty"`
}

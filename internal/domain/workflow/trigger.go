package workflow

// Trigger represents an action that can cause a state transition.
type Trigger string

const (
	TriggerSubmit      Trigger = "SUBMIT"
	TriggerApprove     Trigger = "APPROVE"
	TriggerEscalate    Trigger = "ESCALATE"
	TriggerReject      Trigger = "REJECT"
	TriggerCancel      Trigger = "CANCEL"
	TriggerResubmit    Trigger = "RESUBMIT"
	TriggerAutoApprove Trigger = "AUTO_APPROVE"
	TriggerMatch       Trigger = "MATCH"
	TriggerPay         Trigger = "PAY"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

package eventbus

import "fmt"

// Target types used by the built-in constructors.
const (
	TargetTypeLeave                = "leave"
	TargetTypeAttendanceCorrection = "attendance_correction"
	TargetTypePost                 = "post"
	TargetTypeNotification         = "notification"
)

// Metadata keys the built-in receiver rules rely on.
const (
	MetaEmployeeID     = "employee_id"
	MetaAuthorID       = "author_id"
	MetaNotificationID = "notification_id"
	MetaReceiverID     = "receiver_id"
	MetaReceiverType   = "receiver_type"
	MetaReason         = "reason"
	MetaOriginalType   = "original_type"
	MetaOriginalKey    = "original_key"
)

// NewLeaveApproved describes a leave request approved by a manager.
// employeeID identifies the receiver; the actor is the approver.
func NewLeaveApproved(leaveID, employeeID, approverID, approverName string) (Event, error) {
	if employeeID == "" {
		return Event{}, fmt.Errorf("%w: missing employee id", ErrInvalidEvent)
	}
	return newEvent(TypeLeaveApproved, leaveID, TargetTypeLeave, approverID, approverName,
		map[string]any{MetaEmployeeID: employeeID})
}

// NewLeaveRejected describes a leave request rejected by a manager.
func NewLeaveRejected(leaveID, employeeID, approverID, approverName, reason string) (Event, error) {
	if employeeID == "" {
		return Event{}, fmt.Errorf("%w: missing employee id", ErrInvalidEvent)
	}
	meta := map[string]any{MetaEmployeeID: employeeID}
	if reason != "" {
		meta[MetaReason] = reason
	}
	return newEvent(TypeLeaveRejected, leaveID, TargetTypeLeave, approverID, approverName, meta)
}

// NewAttendanceCorrectionRequested describes an employee asking a manager to
// fix an attendance record. managerID identifies the receiver.
func NewAttendanceCorrectionRequested(correctionID, managerID, employeeID, employeeName string) (Event, error) {
	if managerID == "" {
		return Event{}, fmt.Errorf("%w: missing manager id", ErrInvalidEvent)
	}
	return newEvent(TypeAttendanceCorrectionRequested, correctionID, TargetTypeAttendanceCorrection,
		employeeID, employeeName, map[string]any{MetaReceiverID: managerID})
}

// NewAttendanceCorrectionResolved describes a manager resolving a correction
// request. employeeID identifies the receiver; the actor is the manager.
func NewAttendanceCorrectionResolved(correctionID, employeeID, managerID, managerName string) (Event, error) {
	if employeeID == "" {
		return Event{}, fmt.Errorf("%w: missing employee id", ErrInvalidEvent)
	}
	return newEvent(TypeAttendanceCorrectionResolved, correctionID, TargetTypeAttendanceCorrection,
		managerID, managerName, map[string]any{MetaEmployeeID: employeeID})
}

// NewPostUpvoted describes a post receiving an upvote. authorID identifies
// the receiver; the actor is the voter.
func NewPostUpvoted(postID, authorID, voterID, voterName string) (Event, error) {
	if authorID == "" {
		return Event{}, fmt.Errorf("%w: missing author id", ErrInvalidEvent)
	}
	return newEvent(TypePostUpvoted, postID, TargetTypePost, voterID, voterName,
		map[string]any{MetaAuthorID: authorID})
}

// NewPostCommented describes a comment on a post. authorID identifies the
// receiver; the actor is the commenter.
func NewPostCommented(postID, authorID, commenterID, commenterName string) (Event, error) {
	if authorID == "" {
		return Event{}, fmt.Errorf("%w: missing author id", ErrInvalidEvent)
	}
	return newEvent(TypePostCommented, postID, TargetTypePost, commenterID, commenterName,
		map[string]any{MetaAuthorID: authorID})
}

// NewNotificationCreated is the synthetic event linking the processor to the
// delivery service. The notification itself stays in storage; the event only
// carries the lookup coordinates.
func NewNotificationCreated(notificationID, receiverID, receiverType string) (Event, error) {
	if receiverID == "" || receiverType == "" {
		return Event{}, fmt.Errorf("%w: missing receiver", ErrInvalidEvent)
	}
	return newEvent(TypeNotificationCreated, notificationID, TargetTypeNotification, "", "",
		map[string]any{
			MetaNotificationID: notificationID,
			MetaReceiverID:     receiverID,
			MetaReceiverType:   receiverType,
		})
}

// NewEventDeadLettered records that the original event exhausted all
// processing retries. Observability only; nothing subscribes to it by default.
func NewEventDeadLettered(original Event, reason string) (Event, error) {
	return newEvent(TypeEventDeadLettered, original.TargetID, original.TargetType, original.ActorID, original.ActorName,
		map[string]any{
			MetaOriginalType: string(original.Type),
			MetaOriginalKey:  original.Key(),
			MetaReason:       reason,
		})
}

package services

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/charlesng35/accessd/pkg/errors"
	"github.com/charlesng35/accessd/pkg/metrics"
)

// BatchAction selects the single-pair operation a batch run applies.
type BatchAction string

const (
	BatchActionAssign BatchAction = "assign"
	BatchActionRevoke BatchAction = "revoke"
)

// BatchAssignInput describes one batch run over the Cartesian product of
// users and roles.
type BatchAssignInput struct {
	UserIDs []string
	RoleIDs []string
	Action  BatchAction
	Reason  string
	ActorID string
}

// BatchPair identifies one processed (user, role) pair.
type BatchPair struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// BatchFailure records a pair whose operation failed, with the cause.
type BatchFailure struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
	Error  string `json:"error"`
}

// BatchResult aggregates a batch run. Success plus Failed covers every pair
// processed before any interruption.
type BatchResult struct {
	Success []BatchPair    `json:"success"`
	Failed  []BatchFailure `json:"failed"`
}

// Processed returns the number of pairs the run handled.
func (r *BatchResult) Processed() int {
	return len(r.Success) + len(r.Failed)
}

// BatchAssignRoles applies the action to every (user, role) pair in input
// order, sequentially, isolating per-pair failures: one pair's error is
// captured in Failed and never aborts the rest. No transaction wraps the
// batch; partial application is a reported outcome, not a fatal condition.
//
// An error is returned only for orchestration-level problems (empty inputs,
// unknown action) or context cancellation; in the cancellation case the
// partial result accumulated so far is returned alongside ctx.Err().
func (s *AssignmentService) BatchAssignRoles(ctx context.Context, input BatchAssignInput) (*BatchResult, error) {
	ctx = ensureContext(ctx)

	// Entries are kept verbatim, duplicates included, so that
	// success+failed always accounts for every requested pair; invalid ids
	// fail inside their own pair boundary.
	userIDs := trimAll(input.UserIDs)
	roleIDs := trimAll(input.RoleIDs)
	if len(userIDs) == 0 {
		return nil, apperrors.NewValidation("at least one user id is required")
	}
	if len(roleIDs) == 0 {
		return nil, apperrors.NewValidation("at least one role id is required")
	}
	if input.Action != BatchActionAssign && input.Action != BatchActionRevoke {
		return nil, apperrors.NewValidation(fmt.Sprintf("unknown batch action %q", input.Action))
	}

	result := &BatchResult{}
	action := string(input.Action)

	for _, userID := range userIDs {
		for _, roleID := range roleIDs {
			if err := ctx.Err(); err != nil {
				// Rows written so far are valid and retained.
				return result, err
			}

			var err error
			switch input.Action {
			case BatchActionAssign:
				_, err = s.AssignRole(ctx, AssignRoleInput{
					UserID:     userID,
					RoleID:     roleID,
					Reason:     input.Reason,
					AssignedBy: input.ActorID,
				})
			case BatchActionRevoke:
				err = s.RevokeRole(ctx, userID, roleID, input.ActorID)
			}

			if err != nil {
				metrics.BatchPairs.WithLabelValues(action, "failed").Inc()
				result.Failed = append(result.Failed, BatchFailure{
					UserID: userID,
					RoleID: roleID,
					Error:  err.Error(),
				})
				continue
			}

			metrics.BatchPairs.WithLabelValues(action, "success").Inc()
			result.Success = append(result.Success, BatchPair{UserID: userID, RoleID: roleID})
		}
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ActorID:  optionalID(input.ActorID),
		Action:   "assignment.batch_" + action,
		Resource: strings.Join(roleIDs, ","),
		Result:   "success",
		Metadata: map[string]any{
			"users":   len(userIDs),
			"roles":   len(roleIDs),
			"success": len(result.Success),
			"failed":  len(result.Failed),
		},
	})

	return result, nil
}

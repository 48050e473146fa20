package service

import "socialnet/internal/models"

// RequireAuthenticated fails with 401 when no principal is present.
func RequireAuthenticated(userID uint) error {
	if userID == 0 {
		return models.ErrAuthRequired
	}
	return nil
}

// RequireAuthor fails with 403 unless userID owns the resource.
func RequireAuthor(userID, ownerID uint) error {
	if err := RequireAuthenticated(userID); err != nil {
		return err
	}
	if userID != ownerID {
		return models.ErrPermissionDenied
	}
	return nil
}

// RequireParticipant fails with 403 unless userID sent or received msg.
func RequireParticipant(userID uint, msg *models.DirectMessage) error {
	if err := RequireAuthenticated(userID); err != nil {
		return err
	}
	if msg.SenderID != userID && msg.RecipientID != userID {
		return models.ErrPermissionDenied
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"linkupserver/internal/entity"
	"linkupserver/pkg/apperror"
)

// PairMutator mutates both endpoints of a connection edge in memory. The
// first argument is always the calling user's record. Returning an error
// aborts the transaction with nothing written.
type PairMutator func(caller, other *entity.User) error

type ConnectionRepository interface {
	Get(ctx context.Context, uid string) (*entity.User, error)
	// UpdatePair loads both users under row locks, applies mutate, and
	// persists both connections columns in the same transaction. Either
	// both sides land or neither does. Returns the caller's mutated record.
	UpdatePair(ctx context.Context, callerUID, otherUID string, mutate PairMutator) (*entity.User, error)
}

type connectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Get(ctx context.Context, uid string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
		}
		return nil, err
	}
	return &user, nil
}

func (r *connectionRepository) UpdatePair(ctx context.Context, callerUID, otherUID string, mutate PairMutator) (*entity.User, error) {
	var caller entity.User

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock in sorted uid order so two overlapping pair updates cannot
		// deadlock each other.
		first, second := callerUID, otherUID
		if second < first {
			first, second = second, first
		}

		var a, b entity.User
		if err := lockUser(tx, first, &a); err != nil {
			return err
		}
		if err := lockUser(tx, second, &b); err != nil {
			return err
		}

		callerRec, otherRec := &a, &b
		if callerRec.UID != callerUID {
			callerRec, otherRec = &b, &a
		}

		if err := mutate(callerRec, otherRec); err != nil {
			return err
		}

		if err := writeConnections(tx, callerRec); err != nil {
			return err
		}
		if err := writeConnections(tx, otherRec); err != nil {
			// The transaction rolls back, so nothing is actually left
			// half-written; the classification tells operators which step
			// failed.
			return fmt.Errorf("%w: %s updated but %s failed: %v",
				apperror.ErrPartialWrite, callerRec.UID, otherRec.UID, err)
		}

		caller = *callerRec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &caller, nil
}

func lockUser(tx *gorm.DB, uid string, dst *entity.User) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("uid = ?", uid).
		First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: user %s", apperror.ErrNotFound, uid)
	}
	return err
}

func writeConnections(tx *gorm.DB, u *entity.User) error {
	return tx.Model(&entity.User{}).
		Where("uid = ?", u.UID).
		UpdateColumn("connections", u.Connections).Error
}

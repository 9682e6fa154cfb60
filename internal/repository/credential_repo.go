package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bcgov/bctw-api/internal/model"

	"gorm.io/gorm"
)

// CredentialRepository 厂商账号凭据
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// LotekCredential 取一条 Lotek 账号（表中通常只有一行，多行时按用户名取第一条）
func (r *CredentialRepository) LotekCredential(ctx context.Context) (*model.LotekCredential, error) {
	var c model.LotekCredential
	if err := r.db.WithContext(ctx).Select("username", "pw").Order("username").Take(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no credentials in %s", c.TableName())
		}
		return nil, err
	}
	return &c, nil
}

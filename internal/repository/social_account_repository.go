package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/lib/pq"
	"github.com/maheshrc27/creatortask/internal/models"
	"github.com/maheshrc27/creatortask/pkg/utils"
)

type SocialAccountRepository interface {
	ResolveAccounts(ctx context.Context, ids []string) ([]*models.SocialAccount, error)
}

type socialAccountRepository struct {
	db  *sql.DB
	key []byte
}

// NewSocialAccountRepository returns the account directory. When tokenKey is set,
// stored access tokens are AES-GCM ciphertexts and are decrypted on read.
func NewSocialAccountRepository(db *sql.DB, tokenKey string) SocialAccountRepository {
	return &socialAccountRepository{db: db, key: []byte(tokenKey)}
}

// ResolveAccounts looks up accounts by id. Unknown ids, and accounts whose stored
// token cannot be decrypted, are absent from the result.
func (r *socialAccountRepository) ResolveAccounts(ctx context.Context, ids []string) ([]*models.SocialAccount, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, user_id, platform, account_id, account_name, account_username,
			access_token, token_expires_at, created_at, updated_at
		FROM social_accounts
		WHERE id::text = ANY($1)
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var accounts []*models.SocialAccount
	for rows.Next() {
		var sa models.SocialAccount
		err := rows.Scan(&sa.ID, &sa.UserID, &sa.Platform, &sa.AccountID, &sa.AccountName,
			&sa.AccountUsername, &sa.AccessToken, &sa.TokenExpiresAt, &sa.CreatedAt, &sa.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}

		if len(r.key) > 0 {
			token, err := utils.Decrypt(sa.AccessToken, r.key)
			if err != nil {
				slog.Warn("skipping account with unreadable access token", "account_id", sa.ID, "error", err)
				continue
			}
			sa.AccessToken = token
		}
		accounts = append(accounts, &sa)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return accounts, nil
}

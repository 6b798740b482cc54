// Package services contains server-side business logic. This file implements
// AuthService, the authentication engine: sign-up, sign-in (password and
// federated), token refresh, revocation, and account mutation.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dpavlovs/artfeed/internal/common"
	"github.com/dpavlovs/artfeed/internal/dbx"
	"github.com/dpavlovs/artfeed/internal/logging"
	"github.com/dpavlovs/artfeed/internal/server/auth"
	"github.com/dpavlovs/artfeed/internal/server/config"
	"github.com/dpavlovs/artfeed/internal/server/models"
	"github.com/dpavlovs/artfeed/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates the credential store, password hasher, token
// codec, and federated identity verifier. Tokens are bearer capabilities:
// only their revocation footprint is persisted.
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	hasher                       auth.PasswordHasher
	codec                        *auth.Codec
	verifier                     auth.IdentityVerifier
	logger                       logging.Logger
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	codec *auth.Codec, verifier auth.IdentityVerifier, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		hasher:                       hasher,
		codec:                        codec,
		verifier:                     verifier,
		logger:                       logger,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// SignUp creates a local-password user and issues a token pair.
// Email or username collisions surface as common.ErrConflict from the store's
// uniqueness constraints; they are never pre-checked.
func (s *AuthService) SignUp(ctx context.Context, email, password, username string) (*models.User, *TokenPair, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, fmt.Errorf("error hashing password: %w", err)
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.Create(ctx, &models.User{Email: email, Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, nil, common.ErrConflict
		}
		return nil, nil, fmt.Errorf("error creating user: %w", err)
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// SignIn verifies a password against the stored hash and issues a fresh pair.
// Federated accounts are rejected with common.ErrInvalidSignInMethod before
// the hash is consulted, so they never leak a password-mismatch signal.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.User, *TokenPair, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrNotFound
		}
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	if user.IsFederated() {
		return nil, nil, common.ErrInvalidSignInMethod
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, nil, common.ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// SignInFederated validates a Google ID token and resolves it to a user:
// by google id, then by email, then by creating a new account with an empty
// password hash. The same assertion always resolves to the same user.
func (s *AuthService) SignInFederated(ctx context.Context, assertion string) (*models.User, *TokenPair, error) {
	identity, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, nil, common.ErrInvalidFederatedAssertion
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByGoogleID(ctx, identity.SubjectID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, nil, fmt.Errorf("error loading user: %w", err)
	}

	if user == nil {
		user, err = repo.FindByEmail(ctx, identity.Email)
		switch {
		case err == nil:
			// Attaching a federated id to a pre-existing local account merges
			// two sign-in methods onto one identity; the email is trusted as
			// asserted by the issuer.
			s.logger.Warn(ctx, "attaching federated identity to existing account",
				"userID", user.ID, "email", identity.Email)
			user, err = repo.AttachGoogleID(ctx, user.ID, identity.SubjectID)
			if err != nil {
				return nil, nil, fmt.Errorf("error attaching federated id: %w", err)
			}
		case errors.Is(err, common.ErrNotFound):
			user, err = repo.Create(ctx, &models.User{
				Email:    identity.Email,
				Username: identity.Name,
				GoogleID: &identity.SubjectID,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("error creating user: %w", err)
			}
		default:
			return nil, nil, fmt.Errorf("error loading user: %w", err)
		}
	}

	pair, err := s.generateTokenPair(user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken mints a new access token paired to a still-valid refresh
// token. The refresh token itself is not rotated. The ledger is consulted by
// jti from the unverified payload first; the token only becomes trusted once
// the full signature/expiry check passes. Revocation, expiry, and tampering
// all surface as common.ErrInvalidCredentials.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.codec.Decode(refreshToken)
	if err != nil {
		return "", common.ErrInvalidCredentials
	}

	ledger := s.repomanager.RevokedTokens(s.db)
	if _, err := ledger.FindByJTI(ctx, claims.ID); err == nil {
		return "", common.ErrInvalidCredentials
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("error checking revocation ledger: %w", err)
	}

	if claims.Type != auth.TypeRefresh {
		return "", common.ErrInvalidTokenType
	}

	verified, err := s.codec.Verify(refreshToken)
	if err != nil {
		return "", common.ErrInvalidCredentials
	}
	userID, err := verified.UserID()
	if err != nil {
		return "", common.ErrInvalidCredentials
	}

	access, err := s.codec.Sign(auth.NewAccessClaims(userID, uuid.NewString(), verified.ID, s.accessTokenValidityDuration))
	if err != nil {
		return "", fmt.Errorf("error signing access token: %w", err)
	}
	return access, nil
}

// VerifyAccessToken authenticates a bearer access token for the request
// guard: full signature/expiry verification, type check, then a revocation
// ledger check on its jti. A revoked id rejects the token even while it is
// cryptographically valid. Every failure surfaces as common.ErrUnauthorized.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	claims, err := s.codec.Verify(tokenString)
	if err != nil {
		return nil, common.ErrUnauthorized
	}
	if claims.Type != auth.TypeAccess {
		return nil, common.ErrUnauthorized
	}

	ledger := s.repomanager.RevokedTokens(s.db)
	if _, err := ledger.FindByJTI(ctx, claims.ID); err == nil {
		return nil, common.ErrUnauthorized
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("error checking revocation ledger: %w", err)
	}

	return claims, nil
}

// RevokeToken appends jti to the revocation ledger. Re-revoking an already
// revoked id is harmless; the operation always appears to succeed.
func (s *AuthService) RevokeToken(ctx context.Context, jti string) (*models.RevokedToken, error) {
	token, err := s.repomanager.RevokedTokens(s.db).Create(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("error revoking token: %w", err)
	}
	return token, nil
}

// UpdatePassword replaces the stored hash after verifying the old password.
func (s *AuthService) UpdatePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	repo := s.repomanager.Users(s.db)
	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error loading user: %w", err)
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := repo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	return nil
}

// UpdateEmail changes the user's email; collisions surface as common.ErrConflict.
func (s *AuthService) UpdateEmail(ctx context.Context, userID int64, email string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).UpdateEmail(ctx, userID, email)
	if err != nil {
		if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating email: %w", err)
	}
	return user, nil
}

// UpdateUsername changes the user's username; collisions surface as common.ErrConflict.
func (s *AuthService) UpdateUsername(ctx context.Context, userID int64, username string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).UpdateUsername(ctx, userID, username)
	if err != nil {
		if errors.Is(err, common.ErrConflict) || errors.Is(err, common.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error updating username: %w", err)
	}
	return user, nil
}

// DeleteAccount removes the user and everything they authored inside one
// transaction. Counter repairs on surviving posts run before the owning rows
// are removed, so a mid-cascade failure can never leave counters inconsistent.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		postsRepo := s.repomanager.Posts(tx)
		commentsRepo := s.repomanager.Comments(tx)
		usersRepo := s.repomanager.Users(tx)

		if err := postsRepo.DecrementLikeCountsForUser(ctx, userID); err != nil {
			return err
		}
		if err := postsRepo.DecrementCommentCountsForUser(ctx, userID); err != nil {
			return err
		}
		if err := postsRepo.DeleteLikesByUser(ctx, userID); err != nil {
			return err
		}
		if err := postsRepo.DeleteFavoritesByUser(ctx, userID); err != nil {
			return err
		}
		if err := commentsRepo.DeleteByAuthor(ctx, userID); err != nil {
			return err
		}
		if err := postsRepo.DeleteByAuthor(ctx, userID); err != nil {
			return err
		}
		return usersRepo.Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound
		}
		return fmt.Errorf("error deleting account: %w", err)
	}
	return nil
}

// Profile returns the user together with their posts, comments, likes, and
// favorites. A fresh account yields empty slices, never nil.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return s.buildProfile(ctx, user)
}

// ListUsers returns every user with the same includes as Profile.
func (s *AuthService) ListUsers(ctx context.Context) ([]*models.Profile, error) {
	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	profiles := make([]*models.Profile, 0, len(users))
	for _, user := range users {
		profile, err := s.buildProfile(ctx, user)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (s *AuthService) buildProfile(ctx context.Context, user *models.User) (*models.Profile, error) {
	postsRepo := s.repomanager.Posts(s.db)
	commentsRepo := s.repomanager.Comments(s.db)

	posts, err := postsRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}
	comments, err := commentsRepo.ListByAuthor(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading comments: %w", err)
	}
	likes, err := postsRepo.ListLikedBy(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading likes: %w", err)
	}
	favorites, err := postsRepo.ListFavoritedBy(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading favorites: %w", err)
	}

	return &models.Profile{
		User:      user,
		Posts:     posts,
		Comments:  comments,
		Likes:     likes,
		Favorites: favorites,
	}, nil
}

// generateTokenPair mints a fresh ACCESS/REFRESH pair. The access token
// embeds the refresh token's jti so revoking one can revoke both.
func (s *AuthService) generateTokenPair(userID int64) (*TokenPair, error) {
	refreshJTI := uuid.NewString()

	access, err := s.codec.Sign(auth.NewAccessClaims(userID, uuid.NewString(), refreshJTI, s.accessTokenValidityDuration))
	if err != nil {
		return nil, fmt.Errorf("error signing access token: %w", err)
	}
	refresh, err := s.codec.Sign(auth.NewRefreshClaims(userID, refreshJTI, s.refreshTokenValidityDuration))
	if err != nil {
		return nil, fmt.Errorf("error signing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

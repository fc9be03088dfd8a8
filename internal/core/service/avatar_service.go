package service

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/99minutos/reservation-console/internal/core/domain"
	"github.com/99minutos/reservation-console/internal/core/ports"
)

// MaxAvatarBytes caps the decoded image size.
const MaxAvatarBytes = 2 << 20

const (
	MsgAvatarInvalid  = "La foto debe ser una imagen válida"
	MsgAvatarTooLarge = "La foto no puede superar los 2 MB"
	MsgAvatarSaved    = "Foto actualizada"
)

// AvatarKey is the storage key of a role's profile photo.
func AvatarKey(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return "admin_photo"
	case domain.RoleTechnician:
		return "tech_photo"
	default:
		return "client_photo"
	}
}

// AvatarService keeps the decorative profile photo in the visitor's storage.
// It is never sent to the backend.
type AvatarService struct{}

func NewAvatarService() *AvatarService { return &AvatarService{} }

// Get returns the stored data URL, or "" when there is none.
func (AvatarService) Get(ctx context.Context, storage ports.LocalStorage, role domain.Role) (string, error) {
	v, ok, err := storage.GetItem(ctx, AvatarKey(role))
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

// Set validates a data:image URL and stores it.
func (AvatarService) Set(ctx context.Context, storage ports.LocalStorage, role domain.Role, dataURL string) (Outcome, error) {
	if err := checkDataURL(dataURL); err != nil {
		return Outcome{}, err
	}
	if err := storage.SetItem(ctx, AvatarKey(role), dataURL); err != nil {
		return Outcome{}, err
	}
	return Outcome{Message: MsgAvatarSaved}, nil
}

func checkDataURL(s string) error {
	const prefix = "data:image/"
	if !strings.HasPrefix(s, prefix) {
		return domain.Invalid(MsgAvatarInvalid)
	}
	meta, payload, ok := strings.Cut(s[len(prefix):], ",")
	if !ok || !strings.HasSuffix(meta, ";base64") || payload == "" {
		return domain.Invalid(MsgAvatarInvalid)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxAvatarBytes+2 {
		return domain.Invalid(MsgAvatarTooLarge)
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.Invalid(MsgAvatarInvalid)
	}
	if len(raw) > MaxAvatarBytes {
		return domain.Invalid(MsgAvatarTooLarge)
	}
	return nil
}

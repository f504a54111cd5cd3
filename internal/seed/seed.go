// Package seed creates the bootstrap admin and the global model types.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agenthands/modelhub/internal/auth"
	"github.com/agenthands/modelhub/internal/config"
	"github.com/agenthands/modelhub/internal/core/model"
	"github.com/agenthands/modelhub/internal/store"
)

// DefaultModelTypes are created as global types on every seed run.
var DefaultModelTypes = []string{
	"voc_model",
	"intention_model",
	"typification_model",
	"validation_model",
	"ud",
	"sm",
	"Saludo",
	"Info",
	"Comercializacion",
	"Legalizacion",
	"Despedida",
	"user_intention_model",
	"lang",
	"topics",
	"validation_model_mobil",
	"LegalizacionMovil",
	"otro",
}

type Result struct {
	AdminCreated bool
	TypesCreated int
}

// Run is idempotent: existing records are left untouched.
func Run(ctx context.Context, st store.Store, admin config.AdminConfig, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var res Result

	_, err := st.FindUserByEmail(ctx, admin.Email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		hash, err := auth.HashPassword(admin.Password)
		if err != nil {
			return res, err
		}
		u := &model.User{Name: "Super Admin", Email: admin.Email, PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}
		if err := st.CreateUser(ctx, u); err != nil {
			return res, fmt.Errorf("failed to create admin: %w", err)
		}
		res.AdminCreated = true
		logger.Info("seed.admin_created", "email", admin.Email)
	case err != nil:
		return res, fmt.Errorf("failed to look up admin: %w", err)
	}

	for _, name := range DefaultModelTypes {
		_, err := st.FindGlobalModelType(ctx, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return res, fmt.Errorf("failed to look up model type %s: %w", name, err)
		}
		if err := st.CreateModelType(ctx, &model.ModelType{Name: name}); err != nil {
			return res, fmt.Errorf("failed to create model type %s: %w", name, err)
		}
		res.TypesCreated++
	}
	logger.Info("seed.model_types", "created", res.TypesCreated, "total", len(DefaultModelTypes))
	return res, nil
}

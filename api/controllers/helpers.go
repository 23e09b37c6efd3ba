package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shoplane/backend/api/middleware"
	product "github.com/shoplane/backend/internal/products"
	"github.com/shoplane/backend/pkg/enums"
	pkgerrors "github.com/shoplane/backend/pkg/errors"
)

func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func pathID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+param)
	}
	return id, nil
}

func currentActor(r *http.Request) (product.Actor, error) {
	id, err := currentUserID(r)
	if err != nil {
		return product.Actor{}, err
	}
	return product.Actor{
		ID:    id,
		Admin: middleware.HasRole(r.Context(), string(enums.RoleAdmin)),
	}, nil
}

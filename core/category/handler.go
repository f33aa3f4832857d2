package category

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/images"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		categories, err := FetchAll(ctx, db)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, categories, http.StatusOK)
	}
}

// HandleCreate creates a category from a multipart admin form with an
// optional image file.
func HandleCreate(db *sqlx.DB, up images.Uploader, folder string, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		img, err := images.ParseUpdate(r, "imagefile", "remove_image")
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing image input: %w", err))
		}
		defer img.Close()

		cn := CategoryNew{
			CategoryCode: web.Field(r, "categoryCode"),
			Title:        web.Field(r, "title"),
		}

		if err := validate.Check(cn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if _, err := FetchByCode(ctx, db, cn.CategoryCode); err == nil {
			err := fmt.Errorf("category with code %s already exists", cn.CategoryCode)
			return weberr.Conflict(err, err.Error())
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		cat := Category{
			ID:           validate.GenerateID(),
			CategoryCode: cn.CategoryCode,
			Title:        cn.Title,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if img.Op == images.OpReplace {
			hosted, err := up.Upload(ctx, img.File, folder)
			if err != nil {
				return err
			}
			cat.ImageID = hosted.ID
			cat.ImageURL = hosted.SecureURL
		}

		if err := Create(ctx, db, cat); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, fmt.Sprintf("category with code %s already exists", cn.CategoryCode))
			}
			return err
		}

		return web.Respond(ctx, w, cat, http.StatusCreated)
	}
}

// HandleUpdate edits a category. A replacement image is uploaded and the
// record persisted before the old image is released, so a failed release
// can only orphan a remote image, never break the record.
func HandleUpdate(db *sqlx.DB, up images.Uploader, folder string, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		img, err := images.ParseUpdate(r, "imagefile", "remove_image")
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing image input: %w", err))
		}
		defer img.Close()

		cu := CategoryUp{
			CategoryCode: web.Field(r, "categoryCode"),
			Title:        web.Field(r, "title"),
		}

		if err := validate.Check(cu); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		cat, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if cat.CategoryCode != cu.CategoryCode {
			if _, err := FetchByCode(ctx, db, cu.CategoryCode); err == nil {
				err := fmt.Errorf("category with code %s already exists", cu.CategoryCode)
				return weberr.Conflict(err, err.Error())
			} else if !errors.Is(err, database.ErrNotFound) {
				return err
			}
		}

		oldImageID := cat.ImageID

		cat.CategoryCode = cu.CategoryCode
		cat.Title = cu.Title
		cat.UpdatedAt = time.Now().UTC()

		switch img.Op {
		case images.OpReplace:
			hosted, err := up.Upload(ctx, img.File, folder)
			if err != nil {
				return err
			}
			cat.ImageID = hosted.ID
			cat.ImageURL = hosted.SecureURL
		case images.OpRemove:
			cat.ImageID = ""
			cat.ImageURL = ""
		}

		if err := Update(ctx, db, cat); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, fmt.Sprintf("category with code %s already exists", cu.CategoryCode))
			}
			return err
		}

		if img.Op != images.OpNoChange && oldImageID != "" {
			if err := up.Destroy(ctx, oldImageID); err != nil {
				log.WithField("message", err).Error("releasing replaced category image")
			}
		}

		return web.Respond(ctx, w, cat, http.StatusOK)
	}
}

// HandleDelete removes the category record first and releases its hosted
// image after; a failed release is logged, not surfaced.
func HandleDelete(db *sqlx.DB, up images.Uploader, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		cat, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := Delete(ctx, db, id); err != nil {
			return err
		}

		if cat.ImageID != "" {
			if err := up.Destroy(ctx, cat.ImageID); err != nil {
				log.WithField("message", err).Error("releasing deleted category image")
			}
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

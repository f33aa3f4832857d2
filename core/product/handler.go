package product

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aapkidukaan/storefront/api/web"
	"github.com/aapkidukaan/storefront/api/weberr"
	"github.com/aapkidukaan/storefront/core/cart"
	"github.com/aapkidukaan/storefront/database"
	"github.com/aapkidukaan/storefront/images"
	"github.com/aapkidukaan/storefront/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func makePage(products []Product, current int, count int) Page {
	pages := (count + PerPage - 1) / PerPage
	return Page{Products: products, Current: current, Pages: pages}
}

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		page := pageParam(r)

		products, count, err := FetchPage(ctx, db, page)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, makePage(products, page, count), http.StatusOK)
	}
}

func HandleSearch(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		page := pageParam(r)
		term := r.URL.Query().Get("search")

		products, count, err := Search(ctx, db, term, page)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, makePage(products, page, count), http.StatusOK)
	}
}

func HandleListByCategory(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		categoryID := web.Param(r, "category_id")
		if err := validate.CheckID(categoryID); err != nil {
			return weberr.BadRequest(err)
		}
		page := pageParam(r)

		products, count, err := FetchByCategory(ctx, db, categoryID, page)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, makePage(products, page, count), http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		prd, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, prd, http.StatusOK)
	}
}

func decodeForm(r *http.Request) (ProductUp, error) {
	up := ProductUp{
		ProductCode:  web.Field(r, "productCode"),
		Title:        web.Field(r, "title"),
		Description:  web.Field(r, "description"),
		CategoryID:   web.Field(r, "category"),
		Manufacturer: web.Field(r, "manufacturer"),
		Available:    web.Checkbox(r, "available"),
	}

	if raw := web.Field(r, "price"); raw != "" {
		price, err := strconv.Atoi(raw)
		if err != nil {
			return ProductUp{}, errors.New("price must be a number")
		}
		up.Price = price
	}

	return up, nil
}

// HandleCreate creates a product from a multipart admin form with an
// optional image file.
func HandleCreate(db *sqlx.DB, up images.Uploader, folder string, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		img, err := images.ParseUpdate(r, "imagefile", "remove_image")
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("parsing image input: %w", err))
		}
		defer img.Close()

		form, err := decodeForm(r)
		if err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		pn := ProductNew(form)
		if err := validate.Check(pn); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if _, err := FetchByCode(ctx, db, pn.ProductCode); err == nil {
			err := fmt.Errorf("product with code %s already exists", pn.ProductCode)
			return weberr.Conflict(err, err.Error())
		} else if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		now := time.Now().UTC()
		prd := Product{
			ID:           validate.GenerateID(),
			ProductCode:  pn.ProductCode,
			Title:        pn.Title,
			Description:  pn.Description,
			Price:        pn.Price,
			Manufacturer: pn.Manufacturer,
			Available:    pn.Available,
			CategoryID:   &pn.CategoryID,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if img.Op == images.OpReplace {
			hosted, err := up.Upload(ctx, img.File, folder)
			if err != nil {
				return err
			}
			prd.ImageID = hosted.ID
			prd.ImageURL = hosted.SecureURL
		}

		if err := Create(ctx, db, prd); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, fmt.Sprintf("product with code %s already exists", pn.ProductCode))
			}
			return err
		}

		return web.Respond(ctx, w, prd, http.StatusCreated)
	}
}

// HandleUpdate edits a product. The replacement image is uploaded and
// the record persisted before the old image is released. Marking the
// product unavailable pulls it out of every persisted cart in-process.
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

		pu, err := decodeForm(r)
		if err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		if err := validate.Check(pu); err != nil {
			return weberr.Unprocessable(err, err.Error())
		}

		prd, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if prd.ProductCode != pu.ProductCode {
			if _, err := FetchByCode(ctx, db, pu.ProductCode); err == nil {
				err := fmt.Errorf("product with code %s already exists", pu.ProductCode)
				return weberr.Conflict(err, err.Error())
			} else if !errors.Is(err, database.ErrNotFound) {
				return err
			}
		}

		oldImageID := prd.ImageID

		prd.ProductCode = pu.ProductCode
		prd.Title = pu.Title
		prd.Description = pu.Description
		prd.Price = pu.Price
		prd.Manufacturer = pu.Manufacturer
		prd.Available = pu.Available
		prd.CategoryID = &pu.CategoryID
		prd.UpdatedAt = time.Now().UTC()

		switch img.Op {
		case images.OpReplace:
			hosted, err := up.Upload(ctx, img.File, folder)
			if err != nil {
				return err
			}
			prd.ImageID = hosted.ID
			prd.ImageURL = hosted.SecureURL
		case images.OpRemove:
			prd.ImageID = ""
			prd.ImageURL = ""
		}

		if err := Update(ctx, db, prd); err != nil {
			if database.IsUniqueViolation(err) {
				return weberr.Conflict(err, fmt.Sprintf("product with code %s already exists", pu.ProductCode))
			}
			return err
		}

		if img.Op != images.OpNoChange && oldImageID != "" {
			if err := up.Destroy(ctx, oldImageID); err != nil {
				log.WithField("message", err).Error("releasing replaced product image")
			}
		}

		if !prd.Available {
			if err := cart.RemoveProductEverywhere(ctx, db, prd.ID); err != nil {
				return fmt.Errorf("removing unavailable product[%s] from carts: %w", prd.ID, err)
			}
		}

		return web.Respond(ctx, w, prd, http.StatusOK)
	}
}

// HandleDelete removes the record, purges the product from all persisted
// carts, then releases the hosted image; a failed release is logged.
func HandleDelete(db *sqlx.DB, up images.Uploader, log logrus.FieldLogger) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		prd, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := Delete(ctx, db, id); err != nil {
			return err
		}

		if err := cart.RemoveProductEverywhere(ctx, db, id); err != nil {
			return fmt.Errorf("removing deleted product[%s] from carts: %w", id, err)
		}

		if prd.ImageID != "" {
			if err := up.Destroy(ctx, prd.ImageID); err != nil {
				log.WithField("message", err).Error("releasing deleted product image")
			}
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

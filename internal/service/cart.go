package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/jsalmeida/ecommerce-api/internal/events"
	"github.com/jsalmeida/ecommerce-api/internal/logging"
	"github.com/jsalmeida/ecommerce-api/internal/models"
	"github.com/jsalmeida/ecommerce-api/internal/repo"
)

type CartService struct {
	Repo     *repo.GormRepo
	Producer *events.Producer
}

// Add puts one unit of the product into the user's cart. Both the user and
// the product must exist at this moment; a second add of the same product
// creates a second row.
func (s *CartService) Add(ctx context.Context, userID, productID uint) error {
	l := logging.FromContext(ctx).With("svc", "cart.add", "user_id", userID, "product_id", productID)

	if _, err := s.Repo.GetUserByID(ctx, userID); err != nil {
		l.Warn("add_to_cart_failed", "reason", "user lookup", "error", err)
		return fmt.Errorf("user %d: %w", userID, ErrValidation)
	}
	if _, err := s.Repo.GetProduct(ctx, productID); err != nil {
		l.Warn("add_to_cart_failed", "reason", "product lookup", "error", err)
		return fmt.Errorf("product %d: %w", productID, ErrValidation)
	}

	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
	}
	if err := s.Repo.AddCartItem(ctx, &item); err != nil {
		l.Error("add_to_cart_failed", "error", err)
		return err
	}

	s.publish(ctx, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": productID,
	}, userID)

	l.Info("add_to_cart_success", "item_id", item.ID)
	return nil
}

// RemoveOne deletes a single row for (user, product). Duplicates of the same
// product go one call at a time.
func (s *CartService) RemoveOne(ctx context.Context, userID, productID uint) error {
	l := logging.FromContext(ctx).With("svc", "cart.remove", "user_id", userID, "product_id", productID)

	if err := s.Repo.RemoveOneCartItem(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("remove_from_cart_failed", "reason", "no such item")
			return fmt.Errorf("no cart item for product %d: %w", productID, ErrNotFound)
		}
		l.Error("remove_from_cart_failed", "error", err)
		return err
	}

	s.publish(ctx, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	}, userID)

	l.Info("remove_from_cart_success")
	return nil
}

// View returns the user's cart enriched with current product data.
func (s *CartService) View(ctx context.Context, userID uint) ([]models.CartLine, error) {
	return s.Repo.GetCart(ctx, userID)
}

// Checkout clears the whole cart in one shot. Clearing an already empty
// cart succeeds; no order record is created.
func (s *CartService) Checkout(ctx context.Context, userID uint) error {
	l := logging.FromContext(ctx).With("svc", "cart.checkout", "user_id", userID)

	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		l.Error("checkout_failed", "error", err)
		return err
	}

	s.publish(ctx, map[string]any{
		"type":   "cart_checked_out",
		"userID": userID,
	}, userID)

	l.Info("checkout_success")
	return nil
}

func (s *CartService) publish(ctx context.Context, event map[string]any, userID uint) {
	key := strconv.FormatUint(uint64(userID), 10)
	if err := s.Producer.Publish(ctx, events.TopicCartEvents, key, event); err != nil {
		logging.FromContext(ctx).Warn("cart_event_publish_failed", "error", err)
	}
}

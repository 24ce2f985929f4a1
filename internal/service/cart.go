package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/table_order/internal/cart"
	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/pkg/tokens"
)

type CartService struct {
	Repo   *repo.GormRepo
	Store  cart.Store
	Secret []byte
	TTL    time.Duration
}

type Session struct {
	Token             string                   `json:"token"`
	SessionID         string                   `json:"sessionId"`
	RestaurantSlug    string                   `json:"restaurantSlug"`
	ConsumptionMethod domain.ConsumptionMethod `json:"consumptionMethod"`
	ExpiresAt         time.Time                `json:"expiresAt"`
}

// OpenSession starts a table session for the restaurant with an empty cart.
func (s *CartService) OpenSession(ctx context.Context, slug, rawMethod string) (*Session, error) {
	method, err := domain.ParseConsumptionMethod(rawMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	rest, err := s.Repo.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "restaurant "+slug)
	}

	exp := time.Now().Add(s.TTL)
	token, claims, err := tokens.NewSessionToken(s.Secret, rest.Slug, string(method), exp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := s.Store.Save(ctx, claims.SessionID(), cart.New(rest.ID)); err != nil {
		return nil, err
	}

	return &Session{
		Token:             token,
		SessionID:         claims.SessionID(),
		RestaurantSlug:    rest.Slug,
		ConsumptionMethod: method,
		ExpiresAt:         exp,
	}, nil
}

// Authenticate parses a session token issued by OpenSession.
func (s *CartService) Authenticate(token string) (*tokens.SessionClaims, error) {
	claims, err := tokens.SessionClaimsFromToken(token, s.Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return claims, nil
}

func (s *CartService) GetCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	return s.Store.Load(ctx, sessionID)
}

func (s *CartService) AddItem(ctx context.Context, claims *tokens.SessionClaims, productID uuid.UUID, quantity int) (*cart.Cart, error) {
	if productID == uuid.Nil {
		return nil, fmt.Errorf("%w: product_id required", ErrValidation)
	}
	p, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product "+productID.String())
	}
	if p.Restaurant == nil || p.Restaurant.Slug != claims.Slug {
		return nil, fmt.Errorf("%w: product %s is not on the menu of %q", ErrValidation, productID, claims.Slug)
	}

	c, err := s.Store.Load(ctx, claims.SessionID())
	if err != nil {
		return nil, err
	}
	err = c.AddProduct(cart.Product{
		ID:           p.ID,
		RestaurantID: p.RestaurantID,
		Name:         p.Name,
		Price:        p.Price,
		ImageURL:     p.ImageURL,
	}, quantity)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if err := s.Store.Save(ctx, claims.SessionID(), c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, productID uuid.UUID, fn func(*cart.Cart, uuid.UUID) bool) (*cart.Cart, error) {
	c, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !fn(c, productID) {
		return nil, fmt.Errorf("%w: product %s is not in the cart", ErrNotFound, productID)
	}
	if err := s.Store.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) IncreaseItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, productID, (*cart.Cart).IncreaseQuantity)
}

// DecreaseItem stops at quantity 1.
func (s *CartService) DecreaseItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error) {
	return s.mutate(ctx, sessionID, productID, (*cart.Cart).DecreaseQuantity)
}

// RemoveItem is a no-op for products that are not in the cart.
func (s *CartService) RemoveItem(ctx context.Context, sessionID string, productID uuid.UUID) (*cart.Cart, error) {
	c, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !c.RemoveProduct(productID) {
		return c, nil
	}
	if err := s.Store.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*cart.Cart, error) {
	c, err := s.Store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	c.Clear()
	if err := s.Store.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

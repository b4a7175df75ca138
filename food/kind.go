package food

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/swiftbyte/backend/attr"
)

// Kind knows how to create and update the entities of one data class.
type Kind struct {
	DataClass string
	create    func(data []byte, now time.Time) (Entity, error)
	newUpdate func() any
}

var kinds = map[string]Kind{
	ClassCustomer:   {DataClass: ClassCustomer, create: createWith(NewCustomer), newUpdate: func() any { return &UpdateCustomerInput{} }},
	ClassRestaurant: {DataClass: ClassRestaurant, create: createWith(NewRestaurant), newUpdate: func() any { return &UpdateRestaurantInput{} }},
	ClassOrder:      {DataClass: ClassOrder, create: createWith(NewOrder), newUpdate: func() any { return &UpdateOrderInput{} }},
	ClassReview:     {DataClass: ClassReview, create: createWith(NewReview), newUpdate: func() any { return &UpdateReviewInput{} }},
}

// KindOf returns the Kind for a data class name such as "order".
func KindOf(dataClass string) (Kind, bool) {
	k, ok := kinds[dataClass]
	return k, ok
}

// DataClassFromResource turns an API Gateway resource path like "/Order" into
// a data class name.
func DataClassFromResource(resource string) string {
	return strings.ToLower(strings.ReplaceAll(resource, "/", ""))
}

// Create decodes and validates a create input, then builds a new entity with
// a fresh id. Unknown attributes in data are ignored.
func (k Kind) Create(data []byte, now time.Time) (Entity, error) {
	return k.create(data, now)
}

// ParseUpdate validates a partial update against the update input of the
// kind and returns the attributes to set. Attributes the update input does
// not know are rejected. The id attribute is dropped.
func (k Kind) ParseUpdate(data []byte) (attr.Record, error) {
	input := k.newUpdate()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(input); err != nil {
		return nil, fmt.Errorf("failed to decode %s update: %w", k.DataClass, err)
	}
	if err := validateInput(input); err != nil {
		return nil, err
	}

	var fields attr.Record
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode %s update: %w", k.DataClass, err)
	}
	delete(fields, "id")
	return fields, nil
}

func createWith[I any, E Entity](build func(input I, now time.Time) E) func(data []byte, now time.Time) (Entity, error) {
	return func(data []byte, now time.Time) (Entity, error) {
		var input I
		if err := json.Unmarshal(data, &input); err != nil {
			return nil, fmt.Errorf("failed to decode input: %w", err)
		}
		if err := validateInput(&input); err != nil {
			return nil, err
		}
		return build(input, now), nil
	}
}

func NewCustomer(input CreateCustomerInput, _ time.Time) Customer {
	c := Customer{
		ID:         uuid.NewString(),
		Membership: input.Membership,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
		Password:   input.Password,
		ProfileURI: input.ProfileURI,
		Cart:       Cart{FoodItems: []MenuItem{}},
	}
	if c.Membership == "" {
		c.Membership = MembershipStandard
	}
	if input.Cart != nil {
		c.Cart = *input.Cart
		if c.Cart.FoodItems == nil {
			c.Cart.FoodItems = []MenuItem{}
		}
	}
	return c
}

func NewRestaurant(input CreateRestaurantInput, _ time.Time) Restaurant {
	r := Restaurant{
		ID:              uuid.NewString(),
		Categories:      input.Categories,
		Name:            input.Name,
		Address:         input.Address,
		Email:           input.Email,
		Password:        input.Password,
		Phone:           input.Phone,
		AverageRating:   Unrated,
		AverageWaitTime: Unrated,
		Description:     input.Description,
		Menu:            input.Menu,
	}
	if input.AverageRating != nil {
		r.AverageRating = *input.AverageRating
	}
	if input.AverageWaitTime != nil {
		r.AverageWaitTime = *input.AverageWaitTime
	}
	if r.Menu == nil {
		r.Menu = []MenuItem{}
	}
	return r
}

func NewOrder(input CreateOrderInput, now time.Time) Order {
	o := Order{
		ID:                  uuid.NewString(),
		CustomerID:          input.CustomerID,
		Customer:            input.Customer,
		Restaurant:          input.Restaurant,
		FoodItems:           input.FoodItems,
		OrderStatus:         input.OrderStatus,
		TotalPrice:          input.TotalPrice,
		OrderDate:           now.UnixMilli(),
		Payment:             input.Payment,
		DeliveryInstruction: input.DeliveryInstruction,
		DeliveryAddress:     input.DeliveryAddress,
	}
	if o.OrderStatus == "" {
		o.OrderStatus = OrderStatusPending
	}
	return o
}

func NewReview(input CreateReviewInput, now time.Time) Review {
	return Review{
		ID:           uuid.NewString(),
		CustomerID:   input.CustomerID,
		RestaurantID: input.RestaurantID,
		Rating:       input.Rating,
		Comment:      input.Comment,
		CreatedAt:    now.UnixMilli(),
	}
}

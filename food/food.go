// Package food holds the SwiftByte entities stored in the single table, the
// inputs accepted to create and update them, and the factories which turn a
// validated input into a new entity.
package food

const (
	ClassCustomer   = "customer"
	ClassRestaurant = "restaurant"
	ClassOrder      = "order"
	ClassReview     = "review"
)

const (
	MembershipStandard  = "Standard"
	MembershipByteElite = "ByteElite"
)

const OrderStatusPending = "pending"

// Unrated is stored as averageRating and averageWaitTime until a value has
// been calculated.
const Unrated = -1.0

// Entity is any value stored under its own id.
type Entity interface {
	EntityID() string
}

type MenuItem struct {
	Category    string  `json:"category" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"min=0"`
	Description string  `json:"description"`
	ImagePath   string  `json:"imagePath"`
	IsAvailable bool    `json:"isAvailable"`
}

type Cart struct {
	FoodItems  []MenuItem `json:"foodItems" validate:"dive"`
	TotalPrice *float64   `json:"totalPrice,omitempty" validate:"omitempty,min=0"`
}

type Customer struct {
	ID         string `json:"id"`
	Membership string `json:"membership"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address,omitempty"`
	Password   string `json:"password"`
	ProfileURI string `json:"profileURI,omitempty"`
	Cart       Cart   `json:"cart"`
}

func (c Customer) EntityID() string { return c.ID }

type Restaurant struct {
	ID              string     `json:"id"`
	Categories      []string   `json:"categories,omitempty"`
	Name            string     `json:"name"`
	Address         string     `json:"address"`
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	Phone           string     `json:"phone"`
	AverageRating   float64    `json:"averageRating"`
	AverageWaitTime float64    `json:"averageWaitTime"`
	Description     string     `json:"description"`
	Menu            []MenuItem `json:"menu"`
}

func (r Restaurant) EntityID() string { return r.ID }

// RestaurantRef is the copy of a restaurant kept on an order.
type RestaurantRef struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// CustomerRef is the copy of a customer kept on an order.
type CustomerRef struct {
	ID        string `json:"id" validate:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type Payment struct {
	ID          string  `json:"id" validate:"required"`
	Amount      float64 `json:"amount" validate:"min=0"`
	Type        string  `json:"type" validate:"required,oneof=card paypal"`
	Last4Digits string  `json:"last4Digits" validate:"required,len=4,numeric"`
	CreatedAt   int64   `json:"createdAt"`
}

type Order struct {
	ID                  string        `json:"id"`
	CustomerID          string        `json:"customerId"`
	Customer            *CustomerRef  `json:"customer,omitempty"`
	Restaurant          RestaurantRef `json:"restaurant"`
	FoodItems           []MenuItem    `json:"foodItems"`
	OrderStatus         string        `json:"orderStatus"`
	TotalPrice          float64       `json:"totalPrice"`
	OrderDate           int64         `json:"orderDate"`
	Payment             *Payment      `json:"payment,omitempty"`
	DeliveryInstruction string        `json:"deliveryInstruction"`
	DeliveryAddress     string        `json:"deliveryAddress"`
}

func (o Order) EntityID() string { return o.ID }

type Review struct {
	ID           string  `json:"id"`
	CustomerID   string  `json:"customerId"`
	RestaurantID string  `json:"restaurantId"`
	Rating       float64 `json:"rating"`
	Comment      string  `json:"comment"`
	CreatedAt    int64   `json:"createdAt"`
}

func (r Review) EntityID() string { return r.ID }

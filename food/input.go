package food

type CreateCustomerInput struct {
	FirstName  string `json:"firstName" validate:"required"`
	LastName   string `json:"lastName" validate:"required"`
	Membership string `json:"membership" validate:"omitempty,oneof=ByteElite Standard"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required"`
	Password   string `json:"password" validate:"required,min=8"`
	Address    string `json:"address"`
	ProfileURI string `json:"profileURI" validate:"omitempty,uri"`
	Cart       *Cart  `json:"cart" validate:"omitempty"`
}

type UpdateCustomerInput struct {
	ID         *string `json:"id"`
	FirstName  *string `json:"firstName" validate:"omitempty,min=1"`
	LastName   *string `json:"lastName" validate:"omitempty,min=1"`
	Membership *string `json:"membership" validate:"omitempty,oneof=ByteElite Standard"`
	Email      *string `json:"email" validate:"omitempty,email"`
	Phone      *string `json:"phone" validate:"omitempty,min=1"`
	Password   *string `json:"password" validate:"omitempty,min=8"`
	Address    *string `json:"address"`
	ProfileURI *string `json:"profileURI" validate:"omitempty,uri"`
	Cart       *Cart   `json:"cart" validate:"omitempty"`
}

type CreateRestaurantInput struct {
	Name            string     `json:"name" validate:"required"`
	Email           string     `json:"email" validate:"required,email"`
	Password        string     `json:"password" validate:"required,min=8"`
	Address         string     `json:"address" validate:"required"`
	Phone           string     `json:"phone" validate:"required"`
	Description     string     `json:"description"`
	Menu            []MenuItem `json:"menu" validate:"dive"`
	Categories      []string   `json:"categories" validate:"dive,required"`
	AverageRating   *float64   `json:"averageRating" validate:"omitempty,min=0,max=5"`
	AverageWaitTime *float64   `json:"averageWaitTime" validate:"omitempty,min=0"`
}

type UpdateRestaurantInput struct {
	ID              *string    `json:"id"`
	Name            *string    `json:"name" validate:"omitempty,min=1"`
	Email           *string    `json:"email" validate:"omitempty,email"`
	Password        *string    `json:"password" validate:"omitempty,min=8"`
	Address         *string    `json:"address" validate:"omitempty,min=1"`
	Phone           *string    `json:"phone" validate:"omitempty,min=1"`
	Description     *string    `json:"description"`
	Menu            []MenuItem `json:"menu" validate:"omitempty,dive"`
	Categories      []string   `json:"categories" validate:"omitempty,dive,required"`
	AverageRating   *float64   `json:"averageRating" validate:"omitempty,min=0,max=5"`
	AverageWaitTime *float64   `json:"averageWaitTime" validate:"omitempty,min=0"`
}

type CreateOrderInput struct {
	CustomerID          string        `json:"customerId" validate:"required"`
	Customer            *CustomerRef  `json:"customer" validate:"omitempty"`
	Restaurant          RestaurantRef `json:"restaurant"`
	FoodItems           []MenuItem    `json:"foodItems" validate:"required,min=1,dive"`
	OrderStatus         string        `json:"orderStatus" validate:"omitempty,oneof=pending accepted declined completed cancelled new delivering pendingDriver"`
	TotalPrice          float64       `json:"totalPrice" validate:"min=0"`
	DeliveryInstruction string        `json:"deliveryInstruction"`
	DeliveryAddress     string        `json:"deliveryAddress" validate:"required"`
	Payment             *Payment      `json:"payment" validate:"omitempty"`
}

type UpdateOrderInput struct {
	ID                  *string        `json:"id"`
	CustomerID          *string        `json:"customerId" validate:"omitempty,min=1"`
	Customer            *CustomerRef   `json:"customer" validate:"omitempty"`
	Restaurant          *RestaurantRef `json:"restaurant" validate:"omitempty"`
	FoodItems           []MenuItem     `json:"foodItems" validate:"omitempty,min=1,dive"`
	OrderStatus         *string        `json:"orderStatus" validate:"omitempty,oneof=pending accepted declined completed cancelled new delivering pendingDriver"`
	TotalPrice          *float64       `json:"totalPrice" validate:"omitempty,min=0"`
	DeliveryInstruction *string        `json:"deliveryInstruction"`
	DeliveryAddress     *string        `json:"deliveryAddress" validate:"omitempty,min=1"`
	Payment             *Payment       `json:"payment" validate:"omitempty"`
}

type CreateReviewInput struct {
	CustomerID   string  `json:"customerId" validate:"required"`
	RestaurantID string  `json:"restaurantId" validate:"required"`
	Rating       float64 `json:"rating" validate:"min=1,max=5"`
	Comment      string  `json:"comment"`
}

type UpdateReviewInput struct {
	ID      *string  `json:"id"`
	Rating  *float64 `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string  `json:"comment"`
}

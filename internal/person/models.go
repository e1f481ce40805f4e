package person

// Person is the only entity of the service. ID is assigned by the store on
// insert and never changes afterwards.
type Person struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"firstName" db:"first_name" validate:"max=255"`
	LastName  string `json:"lastName" db:"last_name" validate:"max=255"`
	Email     string `json:"email" db:"email" validate:"omitempty,email,max=320"`
	Age       int    `json:"age" db:"age" validate:"gte=0,lte=150"`
}

func NewPerson(firstName, lastName, email string, age int) *Person {
	return &Person{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Age:       age,
	}
}

// Overwrite replaces every mutable field with the values from src. The ID
// is left untouched.
func (p *Person) Overwrite(src Person) {
	p.FirstName = src.FirstName
	p.LastName = src.LastName
	p.Email = src.Email
	p.Age = src.Age
}

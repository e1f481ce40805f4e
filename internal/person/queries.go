package person

import (
	sq "github.com/Masterminds/squirrel"
)

const peopleTable = "people"

var (
	psql          = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	personColumns = []string{"id", "first_name", "last_name", "email", "age"}
)

func insertPersonQuery(p *Person) (string, []any, error) {
	return psql.Insert(peopleTable).
		Columns("first_name", "last_name", "email", "age").
		Values(p.FirstName, p.LastName, p.Email, p.Age).
		Suffix("RETURNING id").
		ToSql()
}

func selectPersonByIDQuery(id int64) (string, []any, error) {
	return psql.Select(personColumns...).
		From(peopleTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}

func selectPeopleQuery() (string, []any, error) {
	return psql.Select(personColumns...).
		From(peopleTable).
		OrderBy("id").
		ToSql()
}

// updatePersonQuery overwrites all four mutable columns unconditionally.
func updatePersonQuery(p *Person) (string, []any, error) {
	return psql.Update(peopleTable).
		Set("first_name", p.FirstName).
		Set("last_name", p.LastName).
		Set("email", p.Email).
		Set("age", p.Age).
		Where(sq.Eq{"id": p.ID}).
		Suffix("RETURNING id, first_name, last_name, email, age").
		ToSql()
}

func deletePersonQuery(id int64) (string, []any, error) {
	return psql.Delete(peopleTable).
		Where(sq.Eq{"id": id}).
		ToSql()
}

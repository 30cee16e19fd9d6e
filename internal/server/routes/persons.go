package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/lendnet/backend/pkg/common"
	"github.com/OFFIS-RIT/lendnet/backend/pkg/store"

	"github.com/labstack/echo/v4"
)

type personResponse struct {
	Message string         `json:"message"`
	Person  *common.Person `json:"person,omitempty"`
}

// CreatePersonHandler creates a person in the ledger and the graph.
func CreatePersonHandler(c echo.Context) error {
	type createPersonBody struct {
		Name  string `json:"name" validate:"required,max=255"`
		Email string `json:"email" validate:"required,email,max=255"`
	}

	data := new(createPersonBody)
	if !bindValid(c, data) {
		return badRequest(c, "Invalid request body")
	}

	p, err := app(c).Persons.Create(c.Request().Context(), data.Name, data.Email)
	if err != nil {
		return fail(c, "Failed to create person", err)
	}
	return c.JSON(http.StatusCreated, personResponse{Message: "Person created successfully", Person: &p})
}

func GetPersonHandler(c echo.Context) error {
	p, err := app(c).Persons.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, "Failed to get person", err)
	}
	return c.JSON(http.StatusOK, personResponse{Message: "OK", Person: &p})
}

// UpdatePersonHandler changes name and/or email; omitted fields are kept.
func UpdatePersonHandler(c echo.Context) error {
	type updatePersonBody struct {
		Name  *string `json:"name" validate:"omitempty,min=1,max=255"`
		Email *string `json:"email" validate:"omitempty,email,max=255"`
	}

	data := new(updatePersonBody)
	if !bindValid(c, data) {
		return badRequest(c, "Invalid request body")
	}

	p, err := app(c).Persons.Update(c.Request().Context(), c.Param("id"), store.PersonUpdate{
		Name:  data.Name,
		Email: data.Email,
	})
	if err != nil {
		return fail(c, "Failed to update person", err)
	}
	return c.JSON(http.StatusOK, personResponse{Message: "Person updated successfully", Person: &p})
}

func DeletePersonHandler(c echo.Context) error {
	if err := app(c).Persons.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, "Failed to delete person", err)
	}
	return c.JSON(http.StatusOK, personResponse{Message: "Person deleted successfully"})
}

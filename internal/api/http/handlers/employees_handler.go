package handlers

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-directory/internal/api/dto"
	"github.com/spec-kit/employee-directory/internal/service"
	apperrors "github.com/spec-kit/employee-directory/pkg/util"
)

// PictureField is the multipart field carrying the profile picture.
const PictureField = "profile_picture"

// EmployeesHandler exposes the directory endpoints.
type EmployeesHandler struct {
	service *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employeeService *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{service: employeeService}
}

// List GET /api/employees.
func (h *EmployeesHandler) List(c *fiber.Ctx) error {
	employees, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeList(employees))
}

// Get GET /api/employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	employee, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeResponse(employee))
}

// Search GET /api/employees/search/:query. The query may also be given as ?q=.
func (h *EmployeesHandler) Search(c *fiber.Ctx) error {
	query := c.Params("query")
	if query == "" {
		query = c.Query("q")
	}
	employees, err := h.service.Search(c.UserContext(), strings.TrimSpace(query))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeList(employees))
}

// Create POST /api/employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	input, err := parseEmployeeInput(c)
	if err != nil {
		return err
	}
	employee, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.EmployeeMutationResponse{
		Message:  "Employee created successfully",
		Employee: dto.NewEmployeeResponse(employee),
	})
}

// Update PUT /api/employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	input, err := parseEmployeeInput(c)
	if err != nil {
		return err
	}
	employee, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(dto.EmployeeMutationResponse{
		Message:  "Employee updated successfully",
		Employee: dto.NewEmployeeResponse(employee),
	})
}

// Delete DELETE /api/employees/:id.
func (h *EmployeesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Employee deleted successfully"})
}

func parseEmployeeInput(c *fiber.Ctx) (service.EmployeeInput, error) {
	var form dto.EmployeeForm
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&form); err != nil {
			return service.EmployeeInput{}, apperrors.NewValidationError("Invalid request body", err.Error())
		}
	}

	picture, err := pictureFromRequest(c)
	if err != nil {
		return service.EmployeeInput{}, err
	}

	return service.EmployeeInput{
		FirstName:  form.FirstName,
		LastName:   form.LastName,
		Email:      form.Email,
		Position:   form.Position,
		Department: form.Department,
		Salary:     form.Salary,
		DateJoined: form.DateJoined,
		Picture:    picture,
	}, nil
}

// pictureFromRequest returns the single uploaded picture, or nil when the
// request carries none.
func pictureFromRequest(c *fiber.Ctx) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid multipart body", err.Error())
	}
	files := form.File[PictureField]
	switch len(files) {
	case 0:
		return nil, nil
	case 1:
		return files[0], nil
	default:
		return nil, apperrors.NewValidationError("Only one profile picture may be uploaded", PictureField)
	}
}

package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crudusers/internal/models"
	"crudusers/internal/repositories"
	"crudusers/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	service      *services.UserService
	validate     *validator.Validate
	log          zerolog.Logger
	storeTimeout time.Duration
}

// NewUserHandler creates a new UserHandler. Each request gets storeTimeout
// to finish its store round-trips.
func NewUserHandler(service *services.UserService, log zerolog.Logger, storeTimeout time.Duration) *UserHandler {
	return &UserHandler{
		service:      service,
		validate:     validator.New(),
		log:          log,
		storeTimeout: storeTimeout,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	userRoutes := router.Group("/users")
	userRoutes.Get("/", h.HandleListUsers)
	// Must stay ahead of "/:id".
	userRoutes.Get("/sort", h.HandleListUsersSorted)
	userRoutes.Get("/:id", h.HandleGetUser)
	userRoutes.Post("/", h.HandleCreateUser)
	userRoutes.Delete("/:username", h.HandleDeleteUser)
	userRoutes.Put("/:username", h.HandleUpdateUser)
}

func (h *UserHandler) storeContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.storeTimeout)
}

// HandleListUsers retrieves all users. An empty store answers 204.
func (h *UserHandler) HandleListUsers(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	users, err := h.service.FindAllUsers(ctx)
	return h.respondList(c, users, err)
}

// HandleListUsersSorted retrieves all users ordered by lastname, descending.
func (h *UserHandler) HandleListUsersSorted(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	users, err := h.service.FindAllUsersOrderedByLastname(ctx)
	return h.respondList(c, users, err)
}

func (h *UserHandler) respondList(c *fiber.Ctx, users []models.User, err error) error {
	if err != nil {
		h.log.Error().Err(err).Msg("listing users failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve users",
			"error":   err.Error(),
		})
	}
	if len(users) == 0 {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(users)
}

// HandleGetUser retrieves a single user by its ID.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	id := c.Params("id")
	user, err := h.service.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("User with ID %s not found", id),
			})
		}
		return h.internalError(c, "Could not retrieve user", err)
	}
	return c.JSON(user)
}

// HandleCreateUser creates a new user and points Location at it.
// Checks run in order: client supplied ID, email in use, username in use.
func (h *UserHandler) HandleCreateUser(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return invalidBody(c, err)
	}
	// Mongo clients may send the identifier under its document key.
	var document struct {
		ID interface{} `json:"_id"`
	}
	if err := c.BodyParser(&document); err != nil {
		return invalidBody(c, err)
	}
	if user.ID != "" || document.ID != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "A new user cannot already have an ID",
		})
	}
	if err := h.validate.Struct(user); err != nil {
		return validationFailed(c, err)
	}

	ctx, cancel := h.storeContext(c)
	defer cancel()

	if taken, err := h.taken(ctx, h.service.FindByEmail, user.Email); err != nil {
		return h.internalError(c, "Could not create user", err)
	} else if taken {
		return conflict(c, repositories.ErrDuplicateEmail)
	}
	if taken, err := h.taken(ctx, h.service.FindByUsername, user.Username); err != nil {
		return h.internalError(c, "Could not create user", err)
	} else if taken {
		return conflict(c, repositories.ErrDuplicateUsername)
	}

	if err := h.service.SaveUser(ctx, &user); err != nil {
		if isDuplicate(err) {
			return conflict(c, err)
		}
		return h.internalError(c, "Could not create user", err)
	}

	c.Location(strings.TrimSuffix(c.Path(), "/") + "/" + user.ID)
	return c.SendStatus(fiber.StatusCreated)
}

// taken reports whether lookup finds a user for key.
func (h *UserHandler) taken(ctx context.Context, lookup func(context.Context, string) (*models.User, error), key string) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrUserNotFound):
		return false, nil
	default:
		return false, err
	}
}

// HandleDeleteUser deletes the user owning the username path parameter.
func (h *UserHandler) HandleDeleteUser(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	username := c.Params("username")
	user, err := h.service.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return userNotFound(c, username)
		}
		return h.internalError(c, "Could not delete user", err)
	}

	if err := h.service.DeleteUserByID(ctx, user.ID); err != nil {
		return h.internalError(c, "Could not delete user", err)
	}
	h.log.Info().Str("username", username).Str("user_id", user.ID).Msg("user deleted")
	return c.Status(fiber.StatusNoContent).SendString("User Deleted")
}

// HandleUpdateUser changes the user owning the username path parameter.
// Fields present in the body replace the stored ones; absent fields are kept,
// as are ID and username. An unknown username is 404 whatever the body.
func (h *UserHandler) HandleUpdateUser(c *fiber.Ctx) error {
	ctx, cancel := h.storeContext(c)
	defer cancel()

	username := c.Params("username")
	current, err := h.service.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return userNotFound(c, username)
		}
		return h.internalError(c, "Could not update user", err)
	}

	var changes models.UserChanges
	if err := c.BodyParser(&changes); err != nil {
		return invalidBody(c, err)
	}
	if err := h.validate.Struct(changes); err != nil {
		return validationFailed(c, err)
	}

	if err := h.service.UpdateUser(ctx, current, changes); err != nil {
		switch {
		case isDuplicate(err):
			return conflict(c, err)
		case errors.Is(err, repositories.ErrUserNotFound):
			return userNotFound(c, username)
		}
		return h.internalError(c, "Could not update user", err)
	}
	return c.Status(fiber.StatusOK).SendString("A user is updated")
}

func (h *UserHandler) internalError(c *fiber.Ctx, message string, err error) error {
	h.log.Error().Err(err).Str("path", c.Path()).Msg(message)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func invalidBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Invalid request body",
		"error":   err.Error(),
	})
}

func validationFailed(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return invalidBody(c, err)
	}
	errorMessages := make(map[string]string)
	for _, e := range validationErrors {
		errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": "Validation failed",
		"errors":  errorMessages,
	})
}

func userNotFound(c *fiber.Ctx, username string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"message": fmt.Sprintf("User with username %s not found", username),
	})
}

func isDuplicate(err error) bool {
	return errors.Is(err, repositories.ErrDuplicateEmail) || errors.Is(err, repositories.ErrDuplicateUsername)
}

func conflict(c *fiber.Ctx, err error) error {
	message := "Username already used"
	if errors.Is(err, repositories.ErrDuplicateEmail) {
		message = "Email already used"
	}
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

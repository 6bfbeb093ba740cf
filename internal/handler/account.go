package handler

import (
	"net/http"
	"strings"

	"github.com/templui/quizline/internal/ctxkeys"
	"github.com/templui/quizline/internal/service"
	"github.com/templui/quizline/internal/ui"
	"github.com/templui/quizline/internal/validation"
)

type AccountHandler struct {
	userService  *service.UserService
	photoService *service.PhotoService
}

func NewAccountHandler(userService *service.UserService, photoService *service.PhotoService) *AccountHandler {
	return &AccountHandler{
		userService:  userService,
		photoService: photoService,
	}
}

type codeRequest struct {
	Code string `json:"code"`
}

func (h *AccountHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	ui.JSON(w, http.StatusOK, user)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.ChangePasswordInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.userService.ChangePassword(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.Message(w, http.StatusOK, "Password changed.")
}

func (h *AccountHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.ChangeUsernameInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	session, err := h.userService.ChangeUsername(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, session)
}

// UpdatePhoto accepts either a multipart upload in field "photo" or a JSON
// body with an external photoUrl.
func (h *AccountHandler) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		h.uploadPhoto(w, r, user.ID)
		return
	}

	var input service.PhotoURLInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.userService.UpdatePhotoURL(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, updated)
}

func (h *AccountHandler) uploadPhoto(w http.ResponseWriter, r *http.Request, userID string) {
	// leave room for the multipart envelope around the image
	r.Body = http.MaxBytesReader(w, r.Body, validation.ImageConstraints.MaxSize+(1<<20))

	err := r.ParseMultipartForm(validation.ImageConstraints.MaxSize)
	if err != nil {
		ui.FieldErrors(w, "validation failed", map[string]string{"photo": "file too large or malformed upload"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("photo")
	if err != nil {
		ui.FieldErrors(w, "validation failed", map[string]string{"photo": "is required"})
		return
	}
	defer file.Close()

	updated, err := h.photoService.Upload(r.Context(), userID, file, header)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, updated)
}

func (h *AccountHandler) ChangeEmail(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input service.ChangeEmailInput
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.userService.ChangeEmail(r.Context(), user.ID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.Message(w, http.StatusOK, "Check your new email address for the confirmation code.")
}

func (h *AccountHandler) VerifyNewEmail(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var input codeRequest
	err := decodeJSON(w, r, &input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := h.userService.VerifyNewEmail(r.Context(), user.ID, input.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ui.JSON(w, http.StatusOK, updated)
}

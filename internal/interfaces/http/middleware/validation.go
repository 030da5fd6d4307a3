package middleware

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/procuregate/gateway/internal/domain/document"
)

// RegisterValidations installs the gateway's custom binding rules on
// gin's validator engine. Safe to call more than once.
func RegisterValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("middleware: unexpected validator engine")
	}
	return v.RegisterValidation("doctype", validDocumentType)
}

// validDocumentType accepts the known procurement document types
func validDocumentType(fl validator.FieldLevel) bool {
	return document.DocumentType(fl.Field().String()).IsValid()
}

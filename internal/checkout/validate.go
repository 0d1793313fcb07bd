package checkout

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// Input 结算表单
// 卡号等字段仅在支付方式为 card 时必填
type Input struct {
	FullName      string `validate:"required"`
	Email         string `validate:"required,email"`
	Address       string `validate:"required"`
	City          string `validate:"required"`
	PostalCode    string `validate:"required"`
	Phone         string `validate:"omitempty,min=6"`
	PaymentMethod string `validate:"required,oneof=card cash_on_delivery"`
	CardNumber    string `validate:"required_if=PaymentMethod card,omitempty,credit_card"`
	CardExpiry    string `validate:"required_if=PaymentMethod card,omitempty,datetime=01/06"`
	CardCVV       string `validate:"required_if=PaymentMethod card,omitempty,numeric,min=3,max=4"`
}

// FieldError 字段级校验错误
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError 表单校验失败
// 本地可恢复，不触发任何网络调用
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "checkout: validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, field := range e.Fields {
		parts = append(parts, field.Field+": "+field.Message)
	}
	return "checkout: " + strings.Join(parts, "; ")
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateInput 校验结算表单，返回字段级错误
func validateInput(validate *validator.Validate, input Input) *ValidationError {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: []FieldError{{Field: "form", Message: err.Error()}}}
	}
	fields := make([]FieldError, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fieldError.Field(),
			Message: messageForTag(fieldError),
		})
	}
	return &ValidationError{Fields: fields}
}

func messageForTag(fieldError validator.FieldError) string {
	switch fieldError.Tag() {
	case "required", "required_if":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "credit_card":
		return "must be a valid card number"
	case "datetime":
		return "must match MM/YY"
	case "numeric":
		return "must be numeric"
	case "oneof":
		return "is not a supported value"
	case "min":
		return "is too short"
	case "max":
		return "is too long"
	default:
		return "is invalid"
	}
}

package validator

import (
	"fmt"
	"reflect"
	"strings"

	"cinepwa/proj/internal/domain/filters"
	"cinepwa/proj/internal/domain/models"
	"cinepwa/proj/internal/utils"

	govalidator "github.com/go-playground/validator/v10"
)

// New returns a validator with the custom tags used by request DTOs registered.
func New() *govalidator.Validate {
	v := govalidator.New(govalidator.WithRequiredStructEnabled())
	v.RegisterValidation("content_type", ValidateContentType)
	v.RegisterValidation("invite_role", ValidateInviteRole)
	v.RegisterValidation("list_sort", ValidateListSort)
	return v
}

func structType(obj any) reflect.Type {
	t := reflect.TypeOf(obj)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func getFieldName(obj any, origFieldName string) (fieldName string) {
	t := structType(obj)
	field, found := t.FieldByName(origFieldName)
	if !found {
		return utils.CamelToSnake(origFieldName)
	}
	if tag := field.Tag.Get("json"); tag != "" && tag != "-" {
		fieldName = strings.Split(tag, ",")[0]
	}
	if fieldName == "" {
		fieldName = utils.CamelToSnake(origFieldName)
	}
	return
}

func ProcessValidationErrors(obj any, errs govalidator.ValidationErrors) map[string]string {
	processedErrors := make(map[string]string)
	for _, e := range errs {
		processedErrors[getFieldName(obj, e.StructField())] = GetErrorMsgForField(obj, e)
	}
	return processedErrors
}

func ValidateStruct(validator *govalidator.Validate, obj any) (validationErrs map[string]string) {
	if err := validator.Struct(obj); err != nil {
		var errs govalidator.ValidationErrors
		if ok := asValidationErrors(err, &errs); !ok {
			return map[string]string{"_": err.Error()}
		}
		validationErrs = ProcessValidationErrors(obj, errs)
	}
	return
}

func asValidationErrors(err error, dst *govalidator.ValidationErrors) bool {
	errs, ok := err.(govalidator.ValidationErrors)
	if ok {
		*dst = errs
	}
	return ok
}

func GetErrorMsgForField(obj any, err govalidator.FieldError) (errorMsg string) {
	if field, found := structType(obj).FieldByName(err.StructField()); found {
		errorMsg = field.Tag.Get("errorMsg")
	}
	if errorMsg == "" {
		switch err.Tag() {
		case "required":
			errorMsg = "This field is required"
		case "max":
			errorMsg = fmt.Sprintf("The maximum value is %s", err.Param())
		case "min":
			errorMsg = fmt.Sprintf("The minimum value is %s", err.Param())
		case "gte":
			errorMsg = fmt.Sprintf("Value should be greater than or equal to %s", err.Param())
		case "lte":
			errorMsg = fmt.Sprintf("Value should be less than or equal to %s", err.Param())
		case "lt":
			errorMsg = fmt.Sprintf("Value should be less than %s", err.Param())
		case "gt":
			errorMsg = fmt.Sprintf("Value should be greater than %s", err.Param())
		case "oneof":
			errorMsg = fmt.Sprintf("Value should be one of %s", err.Param())
		case "len":
			errorMsg = fmt.Sprintf("Length should be equal to %s", err.Param())
		case "uuid", "uuid4":
			errorMsg = "Value must be a valid UUID"
		case "url":
			errorMsg = "Value must be a valid URL"
		case "email":
			errorMsg = "Value must be a valid email address"
		case "content_type":
			errorMsg = "Value must be one of movie tv"
		case "invite_role":
			errorMsg = "Value must be one of editor viewer"
		case "list_sort":
			errorMsg = fmt.Sprintf("Value must be one of %s", strings.Join(filters.ListsSortSafelist, " "))
		default:
			errorMsg = "This field is invalid"
		}
	}
	return
}

// CUSTOM VALIDATORS

func ValidateContentType(fl govalidator.FieldLevel) bool {
	return models.MediaType(fl.Field().String()).Valid()
}

// ValidateInviteRole accepts only the roles an invite link can grant.
func ValidateInviteRole(fl govalidator.FieldLevel) bool {
	role := models.Role(fl.Field().String())
	return role == models.RoleEditor || role == models.RoleViewer
}

func ValidateListSort(fl govalidator.FieldLevel) bool {
	f := filters.ForLists(fl.Field().String())
	return f.Validate() == nil
}

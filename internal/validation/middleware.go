package validation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	apperrors "github.com/princeprakhar/product-catalog/pkg/errors"
)

// Body validates the JSON body against schema and aborts with a validation
// error carrying every violation. The raw body stays cached on the context,
// so handlers can bind it again with ShouldBindBodyWith.
func Body(schema Schema, mode Mode) gin.HandlerFunc {
	return func(c *gin.Context) {
		message := fmt.Sprintf("Some error occurred when trying to validate the %s", schema.Name)

		var decoded map[string]interface{}
		if err := c.ShouldBindBodyWith(&decoded, binding.JSON); err != nil {
			_ = c.Error(apperrors.Validation(message, []Violation{NotAnObject()}))
			c.Abort()
			return
		}

		raw, _ := c.Get(gin.BodyBytesKey)
		cached, _ := raw.([]byte)
		body, err := decodeObject(cached)
		if err != nil {
			_ = c.Error(apperrors.Validation(message, []Violation{NotAnObject()}))
			c.Abort()
			return
		}

		if violations := schema.Validate(body, mode); len(violations) > 0 {
			_ = c.Error(apperrors.Validation(message, violations))
			c.Abort()
			return
		}

		c.Next()
	}
}

// NotAnObject is the violation reported for bodies that are not a JSON object.
func NotAnObject() Violation {
	return Violation{
		Message:  "Request body must be a JSON object",
		Location: "body",
	}
}

// decodeObject keeps numbers as json.Number so integer rules can tell 3 from 3.0.
func decodeObject(raw []byte) (map[string]interface{}, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var body map[string]interface{}
	if err := decoder.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("body is not a JSON object")
	}
	return body, nil
}

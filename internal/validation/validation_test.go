package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestValidationResultCreation tests creating a new result
func TestValidationResultCreation(t *testing.T) {
	result := NewResult()

	assert.NotNil(t, result)
	assert.Empty(t, result.Messages)
	assert.True(t, result.IsValid())
	assert.True(t, result.CanImport())
	assert.True(t, result.CanPromote())
}

// TestAddError tests adding error messages
func TestAddError(t *testing.T) {
	result := NewResult()

	result.AddError(CodeResourceOverlap, "machine MILL1 double-booked 2026-08-03 09:00-10:00")

	assert.Len(t, result.Messages, 1)
	assert.False(t, result.IsValid())
	assert.False(t, result.CanImport())
	assert.False(t, result.CanPromote())
	assert.Equal(t, 1, result.ErrorCount())
}

// TestAddWarning tests adding warning messages
func TestAddWarning(t *testing.T) {
	result := NewResult()

	result.AddWarning(CodeOutsideBusinessHours, "task scheduled 1 minute past shift end")

	assert.Len(t, result.Messages, 1)
	assert.True(t, result.IsValid())  // Warnings don't make it invalid
	assert.True(t, result.CanImport()) // Can import with warnings
	assert.False(t, result.CanPromote()) // Cannot promote with warnings
	assert.Equal(t, 1, result.WarningCount())
}

// TestAddInfo tests adding info messages
func TestAddInfo(t *testing.T) {
	result := NewResult()

	result.AddInfo("INFO_CODE", "This is informational")

	assert.Len(t, result.Messages, 1)
	assert.True(t, result.IsValid())
	assert.True(t, result.CanImport())
	assert.True(t, result.CanPromote())
	assert.Equal(t, 1, result.InfoCount())
}

// TestMultipleMessages tests collecting multiple messages
func TestMultipleMessages(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodePrecedenceViolated, "task starts before predecessor finishes").
		AddWarning(CodeOutsideBusinessHours, "grazes shift boundary").
		AddInfo("INFO_CODE", "schedule computed in 1.2s")

	assert.Len(t, result.Messages, 3)
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, 1, result.WarningCount())
	assert.Equal(t, 1, result.InfoCount())
	assert.False(t, result.IsValid())
	assert.False(t, result.CanImport())
	assert.False(t, result.CanPromote())
}

// TestMessagesByCode tests filtering messages by code
func TestMessagesByCode(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodeOperatorUnskilled, "operator lacks CNC_MILLING").
		AddError(CodeOperatorUnskilled, "operator lacks WELDING")

	messages := result.MessagesByCode(CodeOperatorUnskilled)

	assert.Len(t, messages, 2)
	for _, msg := range messages {
		assert.Equal(t, CodeOperatorUnskilled, msg.Code)
	}
}

// TestMessagesBySeverity tests filtering messages by severity
func TestMessagesBySeverity(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodeResourceOverlap, "Error 1").
		AddError(CodeResourceOverlap, "Error 2").
		AddWarning(CodeOutsideBusinessHours, "Warning 1").
		AddInfo("CODE", "Info 1")

	errors := result.MessagesBySeverity(SeverityError)
	warnings := result.MessagesBySeverity(SeverityWarning)
	infos := result.MessagesBySeverity(SeverityInfo)

	assert.Len(t, errors, 2)
	assert.Len(t, warnings, 1)
	assert.Len(t, infos, 1)
}

// TestHasErrorsAndWarnings tests flag methods
func TestHasErrorsAndWarnings(t *testing.T) {
	resultClean := NewResult()
	assert.False(t, resultClean.HasErrors())
	assert.False(t, resultClean.HasWarnings())

	resultWithError := NewResult().AddError("CODE", "Error")
	assert.True(t, resultWithError.HasErrors())
	assert.False(t, resultWithError.HasWarnings())

	resultWithWarning := NewResult().AddWarning("CODE", "Warning")
	assert.False(t, resultWithWarning.HasErrors())
	assert.True(t, resultWithWarning.HasWarnings())

	resultWithBoth := NewResult().
		AddError("ERR", "Error").
		AddWarning("WARN", "Warning")
	assert.True(t, resultWithBoth.HasErrors())
	assert.True(t, resultWithBoth.HasWarnings())
}

// TestWithContext tests messages with additional context
func TestWithContext(t *testing.T) {
	result := NewResult()

	context := map[string]interface{}{
		"machine_id": "MILL1",
		"task_id":    "abc-123",
	}

	result.AddErrorWithContext(CodeResourceOverlap, "machine double-booked", context)

	assert.Len(t, result.Messages, 1)
	msg := result.Messages[0]
	assert.Equal(t, context, msg.Context)
	assert.Equal(t, "MILL1", msg.Context["machine_id"])
}

// TestToJSON tests JSON serialization
func TestToJSON(t *testing.T) {
	result := NewResult()

	result.
		AddError(CodePrecedenceViolated, "predecessor not finished").
		AddWarning(CodeOutsideBusinessHours, "grazes shift boundary")

	json, err := result.ToJSON()

	assert.NoError(t, err)
	assert.NotEmpty(t, json)
	assert.Contains(t, json, "PRECEDENCE_VIOLATED")
	assert.Contains(t, json, "OUTSIDE_BUSINESS_HOURS")
	assert.Contains(t, json, "ERROR")
	assert.Contains(t, json, "WARNING")
}

// TestFromJSON tests JSON deserialization
func TestFromJSON(t *testing.T) {
	original := NewResult()
	original.
		AddError(CodePrecedenceViolated, "predecessor not finished").
		AddWarning(CodeOutsideBusinessHours, "grazes shift boundary")

	jsonStr, err := original.ToJSON()
	require.NoError(t, err)

	restored, err := FromJSON(jsonStr)
	require.NoError(t, err)

	assert.Len(t, restored.Messages, 2)
	assert.Equal(t, original.ErrorCount(), restored.ErrorCount())
	assert.Equal(t, original.WarningCount(), restored.WarningCount())
}

// TestSummary tests human-readable summary
func TestSummary(t *testing.T) {
	result := NewResult()
	result.
		AddError(CodePrecedenceViolated, "predecessor not finished").
		AddWarning(CodeOutsideBusinessHours, "grazes shift boundary").
		AddInfo("INFO", "Done")

	summary := result.Summary()

	assert.Contains(t, summary, "1 errors")
	assert.Contains(t, summary, "1 warnings")
	assert.Contains(t, summary, "1 info")
	assert.Contains(t, summary, "PRECEDENCE_VIOLATED")
	assert.Contains(t, summary, "OUTSIDE_BUSINESS_HOURS")
}

// TestChaining tests method chaining
func TestChaining(t *testing.T) {
	result := NewResult().
		AddError("CODE1", "Error 1").
		AddWarning("CODE2", "Warning 1").
		AddInfo("CODE3", "Info 1")

	assert.Len(t, result.Messages, 3)
	assert.Equal(t, 1, result.ErrorCount())
	assert.Equal(t, 1, result.WarningCount())
	assert.Equal(t, 1, result.InfoCount())
}

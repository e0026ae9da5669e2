package testhelper

import "github.com/spf13/pflag"

// StringValue is a trivial pflag.Value for tests that need to inject a
// flag value without the path validation the CLI's real flags perform
type StringValue struct {
	Value string
}

var _ pflag.Value = (*StringValue)(nil)

// NewStringValue wraps v in a StringValue
func NewStringValue(v string) pflag.Value {
	return &StringValue{Value: v}
}

// String returns the stored value
func (v *StringValue) String() string {
	return v.Value
}

// Set replaces the stored value
func (v *StringValue) Set(value string) error {
	v.Value = value
	return nil
}

// Type names the value type for pflag
func (v *StringValue) Type() string {
	return "string"
}

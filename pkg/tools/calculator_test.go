package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculatorTool_Run(t *testing.T) {
	calc := NewCalculatorTool()
	ctx := context.Background()

	cases := []struct {
		name string
		expr string
		want string
	}{
		{"addition", "1 + 2", "3"},
		{"precedence", "2 + 3 * 4", "14"},
		{"parens", "(2 + 3) * 4", "20"},
		{"power right assoc", "2 ** 3 ** 2", "512"},
		{"unary below power", "-2 ** 2", "-4"},
		{"sqrt", "sqrt(16)", "4"},
		{"pow func", "pow(2, 10)", "1024"},
		{"abs func", "abs(-5)", "5"},
		{"constant pi", "pi", "3.141592653589793"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := calc.Run(ctx, map[string]any{"input": tc.expr})
			assert.NoError(t, err)
			assert.Equal(t, tc.want, out)
		})
	}
}

func TestCalculatorTool_AcceptsExpressionAlias(t *testing.T) {
	calc := NewCalculatorTool()
	out, err := calc.Run(context.Background(), map[string]any{"expression": "5 + 5"})
	assert.NoError(t, err)
	assert.Equal(t, "10", out)
}

func TestCalculatorTool_NeverThrows(t *testing.T) {
	calc := NewCalculatorTool()
	ctx := context.Background()

	cases := []string{
		"",
		"1 / 0",
		"sqrt(-1)",
		"notafunc(1)",
		"1 +",
		"((1)",
		"undefined_name",
	}

	for _, expr := range cases {
		out, err := calc.Run(ctx, map[string]any{"input": expr})
		assert.NoError(t, err, "calculator must never return a Go error for %q", expr)
		assert.Contains(t, out, "计算失败")
	}
}

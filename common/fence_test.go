package common

import "testing"

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "language fence",
			input: "```javascript\nfunction gameLoop() {\n  requestAnimationFrame(gameLoop);\n}\n```",
			want:  "function gameLoop() {\n  requestAnimationFrame(gameLoop);\n}",
		},
		{
			name:  "bare fence with surrounding whitespace",
			input: "\n```\nprint(2)\n```\n",
			want:  "print(2)",
		},
		{
			name:  "crlf",
			input: "```lua\r\nprint(2)\r\n```",
			want:  "print(2)",
		},
		{
			name:  "c++ tag",
			input: "```c++\nint x = 1;\n```",
			want:  "int x = 1;",
		},
		{
			name:  "plain code",
			input: "print(2)\n",
			want:  "print(2)\n",
		},
		{
			name:  "fence in the middle",
			input: "// usage:\n```\nrun()\n```\nrun()",
			want:  "// usage:\n```\nrun()\n```\nrun()",
		},
		{
			name:  "empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.input); got != tt.want {
				t.Errorf("StripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

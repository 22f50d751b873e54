package validator

import "testing"

type intentRequest struct {
	Plan string `json:"plan" validate:"omitempty,plan"`
	Pack string `json:"pack" validate:"omitempty,credit_pack"`
}

func TestValidateIntentRequest(t *testing.T) {
	cases := []struct {
		name    string
		req     intentRequest
		wantErr string
	}{
		{name: "plan only", req: intentRequest{Plan: "premium"}},
		{name: "pack only", req: intentRequest{Pack: "credit_12"}},
		{name: "neither", req: intentRequest{}},
		{name: "unknown pack", req: intentRequest{Pack: "credit_2"}, wantErr: "pack"},
		{name: "unknown plan", req: intentRequest{Plan: "gold"}, wantErr: "plan"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := Validate(&tc.req)
			if tc.wantErr == "" {
				if errs != nil {
					t.Fatalf("unexpected errors: %v", errs)
				}
				return
			}
			if _, ok := errs[tc.wantErr]; !ok {
				t.Fatalf("expected error on %q, got %v", tc.wantErr, errs)
			}
		})
	}
}

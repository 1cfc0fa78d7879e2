package dbtcloud

import (
	"bytes"
	"encoding/json"
	"fmt"

	"meshdrop/pkg/errors"
)

// ValidateResponse fails unless the envelope status code is 200 or 201. The
// error text carries the full status block.
func ValidateResponse(resp *Response) error {
	if resp == nil {
		return errors.New(errors.ErrCodeRemoteResponseMalformed, "No response")
	}
	switch resp.Status.Code {
	case 200, 201:
		return nil
	}

	return errors.New(errors.ErrCodeRemoteCallFailed,
		fmt.Sprintf("dbt Cloud API call failed:\n%s", formatStatus(resp))).
		WithContext("status_code", resp.Status.Code).
		WithContext("http_status", resp.HTTPStatus)
}

func formatStatus(resp *Response) string {
	if len(resp.RawStatus) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, resp.RawStatus, "", "  "); err == nil {
			return buf.String()
		}
	}
	data, _ := json.MarshalIndent(resp.Status, "", "  ")
	return string(data)
}

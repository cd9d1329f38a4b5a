// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"encoding/json"
	"os"
	"reflect"
)

// JSONOutput adds machine output to a command when embedded in its
// params struct: binding contributes the --json flag, and Run calls
// [JSONOutput.EmitJSON] before its text formatting:
//
//	type listParams struct {
//	    cli.JSONOutput
//	    TitleID string `json:"title_id" flag:"title-id" desc:"title to list"`
//	}
//
//	if done, err := params.EmitJSON(entries); done {
//	    return err
//	}
//	// ... tabwriter rendering for humans ...
type JSONOutput struct {
	OutputJSON bool `json:"-" flag:"json" desc:"output as JSON"`
}

// EmitJSON writes result to stdout as indented JSON when --json was
// given. It reports done=true when it handled the output; done=false
// means the caller's text formatting should proceed. A nil slice
// emits [] rather than null, so script consumers always see an array.
func (j *JSONOutput) EmitJSON(result any) (done bool, err error) {
	if !j.OutputJSON {
		return false, nil
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return true, encoder.Encode(emptyForNilSlice(result))
}

// emptyForNilSlice swaps a nil slice for an empty one of the same
// type. Other values pass through.
func emptyForNilSlice(value any) any {
	v := reflect.ValueOf(value)
	if v.Kind() == reflect.Slice && v.IsNil() {
		return reflect.MakeSlice(v.Type(), 0, 0).Interface()
	}
	return value
}

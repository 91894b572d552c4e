// Copyright 2025 venslabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package outputhandler

import (
	"encoding/json"
	"io"

	"github.com/venslabs/fossmerge/pkg/compare"
)

type jsonOutputHandler struct {
	w   io.Writer
	res *compare.Result
}

func NewJSONOutputHandler(w io.Writer) OutputHandler {
	return &jsonOutputHandler{w: w}
}

func (h *jsonOutputHandler) HandleComparison(res *compare.Result) error {
	h.res = res
	return nil
}

func (h *jsonOutputHandler) Close() error {
	res := h.res
	if res == nil {
		res = compare.Compare(nil, nil)
	}
	enc := json.NewEncoder(h.w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

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
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/venslabs/fossmerge/pkg/compare"
)

type yamlOutputHandler struct {
	w   io.Writer
	res *compare.Result
}

func NewYAMLOutputHandler(w io.Writer) OutputHandler {
	return &yamlOutputHandler{w: w}
}

func (h *yamlOutputHandler) HandleComparison(res *compare.Result) error {
	h.res = res
	return nil
}

func (h *yamlOutputHandler) Close() error {
	res := h.res
	if res == nil {
		res = compare.Compare(nil, nil)
	}
	enc := yaml.NewEncoder(h.w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return err
	}
	return enc.Close()
}

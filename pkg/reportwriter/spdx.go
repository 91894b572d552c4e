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

package reportwriter

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spdx/tools-golang/spdx"
	"github.com/spdx/tools-golang/spdx/v2/common"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

const (
	noAssertion        = "NOASSERTION"
	spdxNamespaceBase  = "https://spdx.org/spdxdocs/fossmerge-"
	spdxDocumentID     = "DOCUMENT"
	spdxDescribes      = "DESCRIBES"
	spdxPurlCategory   = "PACKAGE-MANAGER"
	spdxPurlReferences = "purl"
)

// writeSPDX emits an SPDX 2.3 JSON document with one package per distinct
// name and version. Several licenses of a package are joined with AND.
func writeSPDX(w io.Writer, agg *types.ScanAggregate, opts Options) error {
	agg = visible(agg, opts)

	name := "fossmerge-report"
	if agg.Cover.InputPath != "" {
		name = filepath.Base(agg.Cover.InputPath)
	}
	tool := toolName(agg.Cover)
	if opts.ToolVersion != "" {
		tool += "-" + opts.ToolVersion
	}

	doc := &spdx.Document{
		SPDXVersion:       spdx.Version,
		DataLicense:       spdx.DataLicense,
		SPDXIdentifier:    common.ElementID(spdxDocumentID),
		DocumentName:      name,
		DocumentNamespace: spdxNamespaceBase + uuid.New().String(),
		CreationInfo: &spdx.CreationInfo{
			Creators: []common.Creator{{CreatorType: "Tool", Creator: tool}},
			Created:  timestamp(agg.Cover.StartTime),
		},
	}

	for i, p := range packages(agg) {
		id := common.ElementID(fmt.Sprintf("Package-%d", i+1))
		license := noAssertion
		if len(p.Licenses) > 0 {
			license = strings.Join(p.Licenses, " AND ")
		}
		doc.Packages = append(doc.Packages, &spdx.Package{
			PackageName:             p.Name,
			PackageSPDXIdentifier:   id,
			PackageVersion:          p.Version,
			PackageDownloadLocation: orNoAssertion(p.DownloadLocation),
			PackageHomePage:         p.Homepage,
			PackageLicenseConcluded: noAssertion,
			PackageLicenseDeclared:  license,
			PackageCopyrightText:    orNoAssertion(p.CopyrightText),
			PackageExternalReferences: []*spdx.PackageExternalReference{{
				Category: spdxPurlCategory,
				RefType:  spdxPurlReferences,
				Locator:  PackageURL(p),
			}},
		})
		doc.Relationships = append(doc.Relationships, &spdx.Relationship{
			RefA:         common.MakeDocElementID("", spdxDocumentID),
			RefB:         common.MakeDocElementID("", string(id)),
			Relationship: spdxDescribes,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}

func orNoAssertion(s string) string {
	if s == "" {
		return noAssertion
	}
	return s
}

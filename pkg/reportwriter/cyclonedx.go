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
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/CycloneDX/cyclonedx-go"
	"github.com/google/uuid"
	"github.com/package-url/packageurl-go"

	"github.com/venslabs/fossmerge/pkg/api/types"
)

// writeCycloneDX emits a CycloneDX BOM with one library component per distinct
// name and version.
func writeCycloneDX(w io.Writer, agg *types.ScanAggregate, opts Options) error {
	agg = visible(agg, opts)

	bom := cyclonedx.NewBOM()
	bom.SerialNumber = "urn:uuid:" + uuid.New().String()
	bom.Metadata = &cyclonedx.Metadata{
		Timestamp: timestamp(agg.Cover.StartTime),
		Tools: &cyclonedx.ToolsChoice{
			Components: &[]cyclonedx.Component{{
				Type:    cyclonedx.ComponentTypeApplication,
				Name:    toolName(agg.Cover),
				Version: opts.ToolVersion,
			}},
		},
	}
	if agg.Cover.InputPath != "" {
		bom.Metadata.Component = &cyclonedx.Component{
			Type: cyclonedx.ComponentTypeApplication,
			Name: filepath.Base(agg.Cover.InputPath),
		}
	}

	pkgs := packages(agg)
	comps := make([]cyclonedx.Component, 0, len(pkgs))
	for _, p := range pkgs {
		purl := PackageURL(p)
		c := cyclonedx.Component{
			BOMRef:     purl,
			Type:       cyclonedx.ComponentTypeLibrary,
			Name:       p.Name,
			Version:    p.Version,
			PackageURL: purl,
			Copyright:  p.CopyrightText,
		}
		if len(p.Licenses) > 0 {
			lics := make(cyclonedx.Licenses, 0, len(p.Licenses))
			for _, l := range p.Licenses {
				lics = append(lics, cyclonedx.LicenseChoice{License: &cyclonedx.License{Name: l}})
			}
			c.Licenses = &lics
		}
		var refs []cyclonedx.ExternalReference
		if p.Homepage != "" {
			refs = append(refs, cyclonedx.ExternalReference{Type: cyclonedx.ERTypeWebsite, URL: p.Homepage})
		}
		if p.DownloadLocation != "" {
			refs = append(refs, cyclonedx.ExternalReference{Type: cyclonedx.ERTypeDistribution, URL: p.DownloadLocation})
		}
		if len(refs) > 0 {
			c.ExternalReferences = &refs
		}
		comps = append(comps, c)
	}
	bom.Components = &comps

	enc := cyclonedx.NewBOMEncoder(w, cyclonedx.BOMFileFormatJSON)
	enc.SetPretty(true)
	return enc.Encode(bom)
}

// PackageURL returns the generic purl of a component. A slash in the name
// separates the namespace.
func PackageURL(c types.Component) string {
	namespace, name := "", c.Name
	if i := strings.LastIndex(name, "/"); i > 0 {
		namespace, name = name[:i], name[i+1:]
	}
	return packageurl.NewPackageURL(packageurl.TypeGeneric, namespace, name, c.Version, nil, "").ToString()
}

func toolName(cover types.Cover) string {
	if cover.Tool != "" {
		return cover.Tool
	}
	return "fossmerge"
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339)
}

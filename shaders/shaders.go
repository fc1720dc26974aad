package shaders

import (
	_ "embed"
)

//go:embed billboard.wgsl
var BillboardWGSL string

//go:embed step.wgsl
var StepWGSL string

//go:embed overlay.wgsl
var OverlayWGSL string

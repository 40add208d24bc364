package msi

import "github.com/modelcontextprotocol/go-sdk/mcp"

var ValidateSymbolStructure = &mcp.Tool{
	Name: "validate_symbol_structure",
	Description: `Check the structure of KiCad symbol library text: the version, generator and generator_version keys,
and for every symbol its Reference, Value and Footprint properties and at least one complete pin.`,
}

var ValidateFootprintStructure = &mcp.Tool{
	Name:        "validate_footprint_structure",
	Description: `Check the structure of a KiCad footprint (.kicad_mod text): a named footprint with a layer and complete pads.`,
}

var SaveFootprintMod = &mcp.Tool{
	Name:        "save_footprint_mod",
	Description: `Save footprint text as <footprint_name>.kicad_mod inside the <lib_name>.pretty library directory.`,
}

var SaveSymbol = &mcp.Tool{
	Name:        "save_symbol",
	Description: `Save symbol text into the <lib_name>.kicad_sym library, creating the library or appending to it.`,
}

var AddFootprintToLib = &mcp.Tool{
	Name:        "add_footprint_to_lib",
	Description: `Register a footprint library in the global fp-lib-table. Existing entries are left untouched.`,
}

var AddSymbolToLib = &mcp.Tool{
	Name:        "add_symbol_to_lib",
	Description: `Register a symbol library in the global sym-lib-table. Existing entries are left untouched.`,
}

var ValidateProject = &mcp.Tool{
	Name:        "validate_project",
	Description: `Check that a KiCad project file exists, is valid JSON and has its board and schematic next to it.`,
}

type ValidateSymbolParams struct {
	SymbolContent string `json:"symbol_content" jsonschema:"Symbol library text, a whole kicad_symbol_lib or its body."`
}

type ValidateFootprintParams struct {
	FootprintContent string `json:"footprint_content" jsonschema:"Footprint text, as stored in a .kicad_mod file."`
}

type SaveFootprintParams struct {
	ModData       string `json:"mod_data" jsonschema:"Footprint text to write."`
	FootprintName string `json:"footprint_name" jsonschema:"Footprint name, used as the file name."`
	LibName       string `json:"lib_name" jsonschema:"Library name without the .pretty suffix."`
}

type SaveSymbolParams struct {
	FileData   string `json:"file_data" jsonschema:"Symbol text to write."`
	SymbolName string `json:"symbol_name" jsonschema:"Symbol name."`
	LibName    string `json:"lib_name" jsonschema:"Library name without the .kicad_sym suffix."`
}

type AddLibParams struct {
	LibPath     string `json:"lib_path,omitempty" jsonschema:"Library location to register. Defaults to the library inside the configured library directory."`
	LibName     string `json:"lib_name" jsonschema:"Library nickname."`
	Description string `json:"description,omitempty" jsonschema:"Library description."`
}

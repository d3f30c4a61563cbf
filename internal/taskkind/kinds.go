package taskkind

func init() {
	Register(&Kind{
		Name:        "crop",
		DisplayName: "Crop Task",
		Fields: []TokenField{
			{Name: "crop"},
			{Name: "sku", Required: true},
			{Name: "variety_name", Required: true},
			{Name: "bed"},
		},
		TitleTemplate:       "Plant {variety_name}",
		DescriptionTemplate: "Crop: {crop}\nVariety: {variety_name}\nSKU: {sku}\nBed: {bed}",
	})

	Register(&Kind{
		Name:        "biennial_crop",
		DisplayName: "Biennial Crop Task",
		Fields: []TokenField{
			{Name: "sku", Required: true},
			{Name: "variety_name", Required: true},
			{Name: "bed"},
			{Name: "bed_second_year"},
		},
		TitleTemplate:       "Plant {variety_name}",
		DescriptionTemplate: "Variety: {variety_name}\nSKU: {sku}\nBed: {bed}\nSecond year bed: {bed_second_year}",
	})
}

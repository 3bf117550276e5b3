package config

import "sort"

// Variables is the built-in catalog of displayable model outputs.
var Variables = []VariableDesc{
	{Model: "cam", VarName: "TS", Type: "flat", Description: "surface temperature", Units: "K", Display: "bimodal", Height: "ground"},
	{Model: "cam", VarName: "PRECT", Type: "flat", Description: "total precipitation rate", Units: "m/s", Display: "increasing", Color: "0x3399ff"},
	{Model: "cam", VarName: "CLDTOT", Type: "flat", Description: "vertically-integrated total cloud", Units: "frac", Display: "coverage", Color: "0xffffff"},
	{Model: "cam", VarName: "CLOUD", Type: "3d", Description: "cloud fraction", Units: "frac", Display: "coverage", Color: "0xffffff", Height: "1.01"},
	{Model: "cam", VarName: "T", Type: "3d", Description: "temperature", Units: "K", Display: "bimodal", Height: "1.01"},
	{Model: "cam", VarName: "Q", Type: "3d", Description: "specific humidity", Units: "kg/kg", Display: "increasing", Color: "0x66ccff", Height: "1.01"},
	{Model: "cam", VarName: "SNOWHLND", Type: "flat", Description: "water equivalent snow depth", Units: "m", Display: "increasing", Color: "0xeeeeff", Height: "ground"},
	{Model: "clm", VarName: "FSNO", Type: "flat", Description: "fraction of ground covered by snow", Units: "frac", Display: "coverage", Color: "0xeeeeff", Height: "ground"},
	{Model: "clm", VarName: "TLAI", Type: "flat", Description: "total projected leaf area index", Units: "none", Display: "increasing", Color: "0x33cc33", Height: "ground"},
	{Model: "cice", VarName: "aice", Type: "flat", Description: "ice area", Units: "frac", Display: "coverage", Color: "0xccffff", Height: "ground"},
}

func GetVariable(model, name string) *VariableDesc {
	for i := range Variables {
		if Variables[i].Model == model && Variables[i].VarName == name {
			return &Variables[i]
		}
	}
	return nil
}

func ListVariables() []string {
	names := make([]string, 0, len(Variables))
	for _, v := range Variables {
		names = append(names, v.Key())
	}
	sort.Strings(names)
	return names
}

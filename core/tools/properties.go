package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const ToolLookupProperties = "lookup_properties"

const propertyCacheSize = 256

// ComponentProperties is one entry in the property table.
type ComponentProperties struct {
	Name            string  `json:"name"`
	MolecularWeight float64 `json:"molecular_weight_kg_kmol"`
	LiquidDensity   float64 `json:"liquid_density_kg_m3"`
	LiquidCp        float64 `json:"liquid_cp_kj_kgk"`
	NormalBoilingC  float64 `json:"normal_boiling_point_c"`
	HeatOfVapKJKg   float64 `json:"heat_of_vaporization_kj_kg"`
	Source          string  `json:"source"`
}

// builtinProperties covers the components that show up in nearly every
// preliminary design. Values at 25 °C and 1 atm unless phase dictates
// otherwise.
var builtinProperties = map[string]ComponentProperties{
	"water":       {Name: "water", MolecularWeight: 18.02, LiquidDensity: 997, LiquidCp: 4.18, NormalBoilingC: 100, HeatOfVapKJKg: 2257},
	"ethanol":     {Name: "ethanol", MolecularWeight: 46.07, LiquidDensity: 789, LiquidCp: 2.44, NormalBoilingC: 78.4, HeatOfVapKJKg: 841},
	"methanol":    {Name: "methanol", MolecularWeight: 32.04, LiquidDensity: 792, LiquidCp: 2.53, NormalBoilingC: 64.7, HeatOfVapKJKg: 1100},
	"benzene":     {Name: "benzene", MolecularWeight: 78.11, LiquidDensity: 876, LiquidCp: 1.74, NormalBoilingC: 80.1, HeatOfVapKJKg: 394},
	"toluene":     {Name: "toluene", MolecularWeight: 92.14, LiquidDensity: 867, LiquidCp: 1.71, NormalBoilingC: 110.6, HeatOfVapKJKg: 351},
	"ammonia":     {Name: "ammonia", MolecularWeight: 17.03, LiquidDensity: 682, LiquidCp: 4.7, NormalBoilingC: -33.3, HeatOfVapKJKg: 1371},
	"nitrogen":    {Name: "nitrogen", MolecularWeight: 28.01, LiquidDensity: 807, LiquidCp: 2.04, NormalBoilingC: -195.8, HeatOfVapKJKg: 199},
	"oxygen":      {Name: "oxygen", MolecularWeight: 32.00, LiquidDensity: 1141, LiquidCp: 1.7, NormalBoilingC: -183, HeatOfVapKJKg: 213},
	"hydrogen":    {Name: "hydrogen", MolecularWeight: 2.016, LiquidDensity: 71, LiquidCp: 9.7, NormalBoilingC: -252.9, HeatOfVapKJKg: 446},
	"methane":     {Name: "methane", MolecularWeight: 16.04, LiquidDensity: 422, LiquidCp: 3.48, NormalBoilingC: -161.5, HeatOfVapKJKg: 510},
	"ethylene":    {Name: "ethylene", MolecularWeight: 28.05, LiquidDensity: 568, LiquidCp: 2.4, NormalBoilingC: -103.7, HeatOfVapKJKg: 482},
	"propane":     {Name: "propane", MolecularWeight: 44.10, LiquidDensity: 493, LiquidCp: 2.5, NormalBoilingC: -42.1, HeatOfVapKJKg: 426},
	"butane":      {Name: "butane", MolecularWeight: 58.12, LiquidDensity: 573, LiquidCp: 2.4, NormalBoilingC: -0.5, HeatOfVapKJKg: 386},
	"co2":         {Name: "co2", MolecularWeight: 44.01, LiquidDensity: 770, LiquidCp: 2.1, NormalBoilingC: -78.5, HeatOfVapKJKg: 574},
	"acetone":     {Name: "acetone", MolecularWeight: 58.08, LiquidDensity: 784, LiquidCp: 2.16, NormalBoilingC: 56.1, HeatOfVapKJKg: 518},
	"acetic acid": {Name: "acetic acid", MolecularWeight: 60.05, LiquidDensity: 1049, LiquidCp: 2.05, NormalBoilingC: 118.1, HeatOfVapKJKg: 402},
}

var componentAliases = map[string]string{
	"carbon dioxide": "co2",
	"carbon_dioxide": "co2",
	"h2o":            "water",
	"steam":          "water",
	"nh3":            "ammonia",
	"n2":             "nitrogen",
	"o2":             "oxygen",
	"h2":             "hydrogen",
	"ch4":            "methane",
	"c2h4":           "ethylene",
	"c3h8":           "propane",
	"etoh":           "ethanol",
	"meoh":           "methanol",
}

// PropertyLookup resolves component property data, consulting an optional
// remote property service before the builtin table. Results are cached.
type PropertyLookup struct {
	backendURL string
	client     *http.Client
	cache      *lru.Cache[string, ComponentProperties]
}

// NewPropertyLookup builds a lookup. backendURL may be empty, in which case
// only the builtin table is consulted.
func NewPropertyLookup(backendURL string) *PropertyLookup {
	cache, _ := lru.New[string, ComponentProperties](propertyCacheSize)
	return &PropertyLookup{
		backendURL: strings.TrimRight(backendURL, "/"),
		client:     &http.Client{Timeout: 10 * time.Second},
		cache:      cache,
	}
}

// RegisterPropertyTool adds the component property lookup to a registry.
func RegisterPropertyTool(r *Registry, lookup *PropertyLookup) {
	r.MustRegister(Spec{
		Name: ToolLookupProperties,
		Description: "Look up physical properties of a chemical component: molecular weight, " +
			"liquid density, heat capacity, normal boiling point and heat of vaporization.",
		Parameters: schema(
			[]string{"component"},
			map[string]any{
				"component": str("Component name, e.g. water, ethanol, toluene"),
			},
		),
		Handler: lookup.handle,
	})
}

type lookupArgs struct {
	Component string `json:"component"`
}

func (p *PropertyLookup) handle(ctx context.Context, raw json.RawMessage) (any, error) {
	var args lookupArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return p.Lookup(ctx, args.Component)
}

// Lookup resolves one component by name.
func (p *PropertyLookup) Lookup(ctx context.Context, component string) (ComponentProperties, error) {
	key := canonicalComponent(component)
	if key == "" {
		return ComponentProperties{}, fmt.Errorf("component name is required")
	}

	if props, ok := p.cache.Get(key); ok {
		return props, nil
	}

	if p.backendURL != "" {
		if props, err := p.fetchRemote(ctx, key); err == nil {
			p.cache.Add(key, props)
			return props, nil
		}
		// Remote misses fall through to the builtin table.
	}

	props, ok := builtinProperties[key]
	if !ok {
		return ComponentProperties{}, fmt.Errorf("no property data for %q; provide molecular weights explicitly", component)
	}
	props.Source = "builtin"
	p.cache.Add(key, props)
	return props, nil
}

func (p *PropertyLookup) fetchRemote(ctx context.Context, component string) (ComponentProperties, error) {
	endpoint := fmt.Sprintf("%s/properties?component=%s", p.backendURL, url.QueryEscape(component))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ComponentProperties{}, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return ComponentProperties{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ComponentProperties{}, fmt.Errorf("property service returned %d", resp.StatusCode)
	}
	var props ComponentProperties
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		return ComponentProperties{}, err
	}
	if props.Name == "" {
		props.Name = component
	}
	props.Source = "remote"
	return props, nil
}

func canonicalComponent(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := componentAliases[key]; ok {
		return alias
	}
	return key
}

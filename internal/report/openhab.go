package report

import (
	"fmt"
	"strings"

	"github.com/nerrad567/floralink/internal/sensor"
)

// OpenHABItems renders the configured sensors as an openHAB items file,
// one block per device family. The output is a starting point: group
// names, icons and the "gAll"/"broker"/"UnknownRoom" placeholders are
// meant to be edited before use.
//
// Channel bindings follow the mqtt-json topic layout, so only that mode
// is supported.
//
// Parameters:
//   - d: The dispatcher whose base topic the channel bindings reference
//   - reg: The populated sensor registry
//
// Returns:
//   - string: The items file text
//   - error: ErrItemsUnsupported when the mode is not mqtt-json
func OpenHABItems(d Dispatcher, reg *sensor.Registry) (string, error) {
	if d.mode != ModeMQTTJSON {
		return "", fmt.Errorf("%w: %s", ErrItemsUnsupported, d.mode)
	}

	var b strings.Builder
	for _, class := range []sensor.Class{sensor.ClassMiflora, sensor.ClassMitempbt} {
		openhabClassItems(&b, d.baseTopic, class, reg.Instances(class))
	}
	return b.String(), nil
}

// openhabClassItems writes one family's groups and per-sensor items.
func openhabClassItems(b *strings.Builder, baseTopic string, class sensor.Class, instances []*sensor.Instance) {
	typeName := class.TypeName()
	displayName := class.DisplayName()

	fmt.Fprintf(b, "// %s.items - Generated by Floralink.\n", class)
	b.WriteString("// Adapt to your needs! Things you probably want to modify:\n")
	b.WriteString("//     Room group names, icons,\n")
	b.WriteString("//     \"gAll\", \"broker\", \"UnknownRoom\"\n")
	b.WriteString("\n")

	fmt.Fprintf(b, "// %s specific groups\n", displayName)
	fmt.Fprintf(b, "Group g%s \"All %s sensors and elements\" (gAll)\n", typeName, displayName)
	for _, spec := range class.Params() {
		fmt.Fprintf(b, "Group g%s \"%s %s elements\" (gAll, g%s)\n",
			spec.Name, displayName, spec.Pretty, typeName)
	}

	for _, inst := range instances {
		id := inst.Identity
		location := id.Location
		if location == "" {
			location = "UnknownRoom"
		}

		fmt.Fprintf(b, "\n// %s \"%s\" (%s)\n", displayName, id.Pretty, id.MAC)
		fmt.Fprintf(b, "Group g%s%s \"%s Sensor %s\" (g%s, g%s)\n",
			location, id.Name, displayName, id.Pretty, typeName, location)

		for _, spec := range class.Params() {
			fmt.Fprintf(b, "Number %s_%s_%s \"%s %s %s [%s %s]\" <text> (g%s%s, g%s) {mqtt=\"<[broker:%s/%s:state:JSONPATH($.%s)]\"}\n",
				location, id.Name, spec.Name,
				location, id.Pretty, spec.Pretty, spec.TypeFormat(), strings.ReplaceAll(spec.Unit, "%", "%%"),
				location, id.Name, spec.Name,
				baseTopic, id.Name, spec.Param)
		}
	}
	b.WriteString("\n")
}

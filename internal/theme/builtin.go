package theme

import "strconv"

// Builtin returns the themes compiled into the server. Operators can add
// more via theme blocks in the config file; builtin ids stay reserved.
func Builtin() []*Theme {
	return []*Theme{
		{
			ID:   "ds9",
			Name: "Deep Space Nine",
			Items: []string{
				"Odo shapeshifts",
				"Quark calls it a business opportunity",
				"Sisko rubs his hands together",
				"Worf says it is a matter of honor",
				"Bashir mentions genetic engineering",
				"O'Brien suffers",
				"Dax recalls a previous host",
				"Kira argues with a Cardassian",
				"Garak denies being a spy",
				"Rule of Acquisition quoted",
				"Someone drinks raktajino",
				"Morn sits silently at the bar",
				"The wormhole opens",
				"Prophets speak in riddles",
				"Dukat monologues",
				"Rom fixes something Quark broke",
				"Nog mentions Starfleet",
				"Jake writes a story",
				"Holosuite malfunction",
				"Runabout takes damage",
				"Self-sealing stem bolts",
				"Baseball reference",
				"Red alert on the Defiant",
				"Changeling paranoia",
				"Vic Fontaine sings",
				"Winn smiles insincerely",
				"Tribble cameo",
				"Section 31 lurks",
			},
		},
		{
			ID:   "classic",
			Name: "Classic 75-ball",
			Items: classicItems(),
		},
	}
}

// classicItems builds the traditional B1..O75 call pool
func classicItems() []string {
	letters := []string{"B", "I", "N", "G", "O"}
	items := make([]string, 0, 75)
	for col, letter := range letters {
		for n := 1; n <= 15; n++ {
			items = append(items, letter+strconv.Itoa(col*15+n))
		}
	}
	return items
}

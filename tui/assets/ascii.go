package assets

// Logo shown in the operation header.
const Logo = `   .-------.  .----.
   | [] [] |  |(**)|
   | [] [] |  | -- |
   '-------'  '----'
    \__studio__/`

// GetLogo returns the header logo.
func GetLogo() string {
	return Logo
}

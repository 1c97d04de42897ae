// Code generated by hand for tests. DO NOT EDIT.

package nilcheck

func generatedZero() int {
	var p *node
	return p.v
}

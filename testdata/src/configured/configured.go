package configured

type item struct {
	v int
}

func lookup(name string) *item {
	if name == "" {
		return nil
	}
	return &item{v: len(name)}
}

func die(msg string) {
	println(msg)
}

func found(name string) int {
	it := lookup(name)
	return it.v // want "NUL000: possible null dereference of it"
}

func checked(name string) int {
	it := lookup(name)
	if it == nil {
		die("no item " + name)
	}
	return it.v
}

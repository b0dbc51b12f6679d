package model

// indexer gives a unique variable index to every (operation, room) pair that has a defined cost and vice versa.
// Pairs without a cost get no variable.
type indexer interface {
	// Returns the variable index of the pair and whether such variable exists
	Index(operation, room int) (int, bool)
	// Returns the pair of attributes behind a variable index
	Attributes(index int) (operation, room int)
	// Returns the number of variables
	Size() int
}

func newIndexer(operations []Operation, rooms []string, resolver costResolver) indexer {
	implementation := indexerImplementation{
		indices: make(map[[2]int]int),
		pairs:   make([][2]int, 0, len(operations)*len(rooms)),
	}

	// Operation-major order, so the variables of an operation are contiguous
	for operation := range operations {
		for room := range rooms {
			if _, err := resolver.Cost(operations[operation].Id, rooms[room]); err != nil {
				continue
			}
			implementation.indices[[2]int{operation, room}] = len(implementation.pairs)
			implementation.pairs = append(implementation.pairs, [2]int{operation, room})
		}
	}

	return &implementation
}

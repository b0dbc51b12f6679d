package model

type indexerImplementation struct {
	indices map[[2]int]int
	pairs   [][2]int
}

func (indexer *indexerImplementation) Index(operation, room int) (int, bool) {
	index, ok := indexer.indices[[2]int{operation, room}]
	return index, ok
}

func (indexer *indexerImplementation) Attributes(index int) (operation, room int) {
	pair := indexer.pairs[index]
	return pair[0], pair[1]
}

func (indexer *indexerImplementation) Size() int {
	return len(indexer.pairs)
}

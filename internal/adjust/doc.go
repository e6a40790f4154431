// Package adjust implements the split-adjustment calculator.
//
// adjusted_price = raw_price / cumulative_split_factor, where the cumulative
// factor for a ticker/date is the product of split_to/split_from over every
// split of that ticker executed after the date. The calculator is pure:
// it depends only on the bars and splits it is given.
package adjust

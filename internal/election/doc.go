// Package election resolves one round of a selectorate election.
//
// For voter i and candidate c the realized utility is
//
//	U_i(c) = -(p_i - p_c)^2 + alpha_c*R/|V| + bias_i(c) + (1-alpha_c)*R/|W_c| * 1[i in W_c]
//
// Voters pick the candidate with the highest utility before private goods
// are allocated (policy, public goods and risk bias). Each candidate then
// grants private goods to the supporters closest to it, as many as its
// private budget can fund at PrivateGrant per member. The round is won by the
// largest coalition.
//
// The risk bias compares each candidate's private-payoff lottery against the
// pool: a prospective supporter expects a fair share ceil(|V|/m) of the
// electorate to be funded, so the payoff (1-alpha)R/k arrives with
// probability k/|V|. Candidates whose payoff variance is above the pool mean
// gain RiskBias with risk-seeking voters and lose it with safe-seeking ones.
package election

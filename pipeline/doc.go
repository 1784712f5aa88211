// Package pipeline orquestra uma geração admitida: fonte de imagens de
// passo → composição do pôster → persistência dos três artefatos no
// object store → registro do pôster no KV.
//
// A requisição ou completa cada estágio ou falha inteira; não há
// retomada no meio. O registro no KV é o ponto de commit: sem ele,
// nenhum artefato é visível (tudo-ou-nada do conjunto).
package pipeline
